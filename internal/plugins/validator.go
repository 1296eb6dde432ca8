package plugins

import "encoding/json"

// validateDetails checks what a plugin reported about itself. Checks run in
// field order and stop at the first failure.
func validateDetails(className, sourcePath string, raw rawDetails) (PluginDetails, error) {
	id, err := stringField(className, FieldID, raw.ID)
	if err != nil {
		return PluginDetails{}, err
	}
	name, err := stringField(className, FieldName, raw.Name)
	if err != nil {
		return PluginDetails{}, err
	}
	version, err := stringField(className, FieldVersion, raw.Version)
	if err != nil {
		return PluginDetails{}, err
	}

	interfaceVersion, ok := integerValue(raw.InterfaceVersion)
	if !ok {
		return PluginDetails{}, NewFieldError(className, FieldInterfaceVersion, false)
	}
	if interfaceVersion != InterfaceVersionBasic {
		return PluginDetails{}, NewInterfaceVersionError(sourcePath, interfaceVersion)
	}

	return PluginDetails{
		ID:               id,
		Name:             name,
		Version:          version,
		InterfaceVersion: int(interfaceVersion),
	}, nil
}

func stringField(className, field string, value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", NewFieldError(className, field, false)
	}
	if s == "" {
		return "", NewFieldError(className, field, true)
	}
	return s, nil
}

// integerValue accepts Go integers and JSON numbers written without a
// fraction or exponent.
func integerValue(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	default:
		return 0, false
	}
}
