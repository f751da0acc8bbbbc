package metrics

import "fmt"

// Tag formats a DataDog tag as "key:value".
func Tag(key, value string) string {
	return fmt.Sprintf("%s:%s", key, value)
}

// BackendTag formats a backend tag.
func BackendTag(backend string) string {
	return Tag("backend", backend)
}

// OperationTag formats an operation tag.
func OperationTag(op string) string {
	return Tag("operation", op)
}

// StatusTag tags an outcome: hit, miss, error or a health status.
func StatusTag(status string) string {
	return Tag("status", status)
}

// DriverTag formats a driver tag.
func DriverTag(driver string) string {
	return Tag("driver", driver)
}

// CircuitStateTag formats a circuit state tag.
func CircuitStateTag(state string) string {
	return Tag("circuit_state", state)
}

// MergeTags appends tags to base without writing into base.
func MergeTags(base, tags []string) []string {
	if len(tags) == 0 {
		return base
	}
	if len(base) == 0 {
		return tags
	}
	out := make([]string, 0, len(base)+len(tags))
	out = append(out, base...)
	return append(out, tags...)
}

