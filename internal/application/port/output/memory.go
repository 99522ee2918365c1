package output

// MemoryPort backs the remember and recall actions.
type MemoryPort interface {
	Remember(key, value string)
	Recall(key string) (string, bool)
	Len() int
}
