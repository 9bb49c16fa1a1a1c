// Package backendhttp реализует Upload API поверх локального диска — dev/test
// двойник продакшен-бэкенда с тем же HTTP-контрактом. Основные эндпоинты:
//   - POST /upload/initiate — создаёт multipart-загрузку; по fingerprint находит незавершённую.
//   - GET /upload/{fileID}/presigned-url?part_number=N — выдаёт URL для прямой заливки части.
//   - PUT /blob/{fileID}/{part} — принимает байты части, отвечает заголовком ETag (MD5).
//   - POST /upload/{fileID}/part-uploaded — фиксирует подтверждённую клиентом часть.
//   - POST /upload/{fileID}/complete — сверяет части, собирает файл, закрывает загрузку.
//   - POST /upload/{fileID}/abort — прерывает загрузку и удаляет принятые части.
//   - GET /upload/{fileID}/upload-status — статус и список подтверждённых частей.
//   - GET /health — агрегированные метрики по каталогу данных.
package backendhttp
