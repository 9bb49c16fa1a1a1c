package backendhttp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yourname/upload_lite/pkg/uploadapi"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(t.TempDir(), 8))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()
	b, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func initiateUpload(t *testing.T, srv *httptest.Server, size int64, fingerprint string) uploadapi.InitiateResponse {
	t.Helper()
	resp := postJSON(t, srv.URL+uploadapi.InitiatePath, uploadapi.InitiateRequest{
		Filename:    "sample.bin",
		Size:        size,
		Fingerprint: fingerprint,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decodeBody[uploadapi.InitiateResponse](t, resp)
}

func putPart(t *testing.T, url string, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPut, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestInitiateValidation(t *testing.T) {
	srv := newTestServer(t)

	cases := []struct {
		name string
		req  uploadapi.InitiateRequest
	}{
		{"no filename", uploadapi.InitiateRequest{Size: 10, Fingerprint: "fp"}},
		{"negative size", uploadapi.InitiateRequest{Filename: "a", Size: -1, Fingerprint: "fp"}},
		{"no fingerprint", uploadapi.InitiateRequest{Filename: "a", Size: 10}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := postJSON(t, srv.URL+uploadapi.InitiatePath, tc.req)
			require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		})
	}
}

func TestInitiateComputesTotalParts(t *testing.T) {
	srv := newTestServer(t)

	init := initiateUpload(t, srv, 20, "fp-20")
	require.Equal(t, int64(8), init.PartSize)
	require.Equal(t, 3, init.TotalParts)
	require.NotEmpty(t, init.FileID)
	require.NotEmpty(t, init.UploadID)
	require.Empty(t, init.UploadedParts)
}

func TestInitiateDeduplicatesByFingerprint(t *testing.T) {
	srv := newTestServer(t)

	first := initiateUpload(t, srv, 16, "fp-dup")

	// заливаем и подтверждаем первую часть
	blobURL := fmt.Sprintf("%s/blob/%s/1", srv.URL, first.FileID)
	put := putPart(t, blobURL, "12345678")
	require.Equal(t, http.StatusOK, put.StatusCode)
	etag := put.Header.Get("ETag")
	require.NotEmpty(t, etag)

	ack := postJSON(t, srv.URL+fmt.Sprintf(uploadapi.PartUploadedPathFormat, first.FileID),
		uploadapi.PartRef{PartNumber: 1, ETag: etag})
	require.Equal(t, http.StatusOK, ack.StatusCode)

	// повторный initiate того же файла возвращает ту же загрузку и принятые части
	second := initiateUpload(t, srv, 16, "fp-dup")
	require.Equal(t, first.FileID, second.FileID)
	require.Equal(t, first.UploadID, second.UploadID)
	require.Equal(t, []uploadapi.PartRef{{PartNumber: 1, ETag: etag}}, second.UploadedParts)
}

func TestPresignRejectsOutOfRangePart(t *testing.T) {
	srv := newTestServer(t)
	init := initiateUpload(t, srv, 16, "fp-range")

	resp, err := http.Get(srv.URL + fmt.Sprintf(uploadapi.PresignPathFormat, init.FileID) + "?part_number=9")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestPresignUnknownUpload(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + fmt.Sprintf(uploadapi.PresignPathFormat, "ghost") + "?part_number=1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCompleteRejectsWrongETag(t *testing.T) {
	srv := newTestServer(t)
	init := initiateUpload(t, srv, 8, "fp-etag")

	put := putPart(t, fmt.Sprintf("%s/blob/%s/1", srv.URL, init.FileID), "12345678")
	require.Equal(t, http.StatusOK, put.StatusCode)

	resp := postJSON(t, srv.URL+fmt.Sprintf(uploadapi.CompletePathFormat, init.FileID),
		uploadapi.CompleteRequest{Parts: []uploadapi.PartRef{{PartNumber: 1, ETag: `"bogus"`}}})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestCompleteRejectsMissingParts(t *testing.T) {
	srv := newTestServer(t)
	init := initiateUpload(t, srv, 16, "fp-missing")

	resp := postJSON(t, srv.URL+fmt.Sprintf(uploadapi.CompletePathFormat, init.FileID),
		uploadapi.CompleteRequest{Parts: nil})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestAbortThenOperationsConflict(t *testing.T) {
	srv := newTestServer(t)
	init := initiateUpload(t, srv, 16, "fp-abort")

	abort := postJSON(t, srv.URL+fmt.Sprintf(uploadapi.AbortPathFormat, init.FileID), nil)
	require.Equal(t, http.StatusNoContent, abort.StatusCode)

	// после abort загрузка не активна
	resp, err := http.Get(srv.URL + fmt.Sprintf(uploadapi.PresignPathFormat, init.FileID) + "?part_number=1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	repeat := postJSON(t, srv.URL+fmt.Sprintf(uploadapi.AbortPathFormat, init.FileID), nil)
	require.Equal(t, http.StatusConflict, repeat.StatusCode)

	st, err := http.Get(srv.URL + fmt.Sprintf(uploadapi.StatusPathFormat, init.FileID))
	require.NoError(t, err)
	defer st.Body.Close()
	status := decodeBody[uploadapi.UploadStatusResponse](t, st)
	require.Equal(t, uploadapi.StatusFailed, status.Status)
}

func TestBlobRejectsUnknownUpload(t *testing.T) {
	srv := newTestServer(t)

	resp := putPart(t, srv.URL+"/blob/ghost/1", "data")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
