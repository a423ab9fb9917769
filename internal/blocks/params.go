package blocks

// Хелперы извлечения типизированных значений из params.

// ParamString извлекает строковое значение.
func ParamString(params map[string]any, key string) string {
	if v, ok := params[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// ParamFloat извлекает числовое значение.
func ParamFloat(params map[string]any, key string) float64 {
	if v, ok := params[key]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case float32:
			return float64(n)
		case int:
			return float64(n)
		case int64:
			return float64(n)
		}
	}
	return 0
}

// ParamBool извлекает булево значение.
func ParamBool(params map[string]any, key string) bool {
	if v, ok := params[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

// ParamMap извлекает вложенный объект.
func ParamMap(params map[string]any, key string) map[string]any {
	if v, ok := params[key]; ok {
		if m, ok := v.(map[string]any); ok {
			return m
		}
	}
	return nil
}

// ParamStringMap извлекает map[string]string (например, HTTP-заголовки).
func ParamStringMap(params map[string]any, key string) map[string]string {
	if v, ok := params[key]; ok {
		switch m := v.(type) {
		case map[string]string:
			return m
		case map[string]any:
			result := make(map[string]string, len(m))
			for k, val := range m {
				if s, ok := val.(string); ok {
					result[k] = s
				}
			}
			return result
		}
	}
	return nil
}

// ParamStringSlice извлекает список строк (например, путь json.get).
func ParamStringSlice(params map[string]any, key string) []string {
	if v, ok := params[key]; ok {
		switch s := v.(type) {
		case []string:
			return s
		case []any:
			result := make([]string, 0, len(s))
			for _, item := range s {
				if str, ok := item.(string); ok {
					result = append(result, str)
				}
			}
			return result
		}
	}
	return nil
}
