package uploadsvc

// Chunk описывает один непрерывный диапазон байт файла. Номера частей идут
// с единицы в порядке возрастания смещения.
type Chunk struct {
	Number int
	Offset int64
	Size   int64
}

// Plan разбивает [0, totalSize) на последовательные части по partSize байт:
// без дыр и перекрытий, последняя часть короче остальных. Пустой файл даёт
// пустой план.
func Plan(totalSize, partSize int64) []Chunk {
	if totalSize <= 0 || partSize <= 0 {
		return nil
	}

	total := int((totalSize + partSize - 1) / partSize)
	chunks := make([]Chunk, 0, total)
	for n := 1; n <= total; n++ {
		offset := int64(n-1) * partSize
		chunks = append(chunks, Chunk{
			Number: n,
			Offset: offset,
			Size:   min(partSize, totalSize-offset),
		})
	}
	return chunks
}
