package output

// ConfigPort reads raw settings from the process environment.
type ConfigPort interface {
	Get(key string) string
	GetWithDefault(key string, defaultValue string) string
}
