package inference

// fallbackTableFor decides which of the three degenerate table shapes
// applies when discovery finds no entities anywhere in payload.
func fallbackTableFor(payload any) string {
	switch payload.(type) {
	case []any:
		return "array_data"
	case map[string]any:
		return "root_object"
	default:
		return "scalar_data"
	}
}
