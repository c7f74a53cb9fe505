package database

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// timestampLayouts are the layouts accepted when parsing date and timestamp
// values arriving from the driver as text.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ConvertValue interprets a raw cursor cell value according to the declared
// column data type. A nil raw value stays nil. Integer values convert to
// int64, floats to float64, text to string, date and timestamp values to
// time.Time, bytes to []byte. Decimal values keep their driver-side decimal
// text when available, so no precision is lost. DataTypeUnknown passes the
// raw value through untouched.
func ConvertValue(raw interface{}, dataType DataType) (interface{}, error) {
	if raw == nil {
		return nil, nil
	}
	switch dataType {
	case DataTypeUnknown:
		return raw, nil
	case DataTypeInteger:
		return convertInteger(raw)
	case DataTypeFloat:
		return convertFloat(raw)
	case DataTypeDecimal:
		return convertDecimal(raw)
	case DataTypeBool:
		return convertBool(raw)
	case DataTypeText:
		return convertText(raw), nil
	case DataTypeDate, DataTypeTimestamp:
		return convertTime(raw)
	case DataTypeBytes:
		return convertBytes(raw), nil
	default:
		return nil, errors.Wrapf(ErrInvalidArgument, "unsupported data type %s", dataType)
	}
}

func convertInteger(raw interface{}) (interface{}, error) {
	switch v := raw.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case uint64:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case []byte:
		return parseInteger(string(v))
	case string:
		return parseInteger(v)
	}
	return nil, conversionError(raw, DataTypeInteger)
}

func convertFloat(raw interface{}) (interface{}, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case []byte:
		return parseFloat(string(v))
	case string:
		return parseFloat(v)
	}
	return nil, conversionError(raw, DataTypeFloat)
}

func parseInteger(s string) (interface{}, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, conversionError(s, DataTypeInteger)
	}
	return n, nil
}

func parseFloat(s string) (interface{}, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, conversionError(s, DataTypeFloat)
	}
	return f, nil
}

func convertDecimal(raw interface{}) (interface{}, error) {
	// Drivers commonly deliver decimals as text. Keep that text so the
	// caller decides how to interpret it without losing precision.
	switch v := raw.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case float64, int64:
		return fmt.Sprintf("%v", v), nil
	}
	return nil, conversionError(raw, DataTypeDecimal)
}

func convertBool(raw interface{}) (interface{}, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case int64:
		return v != 0, nil
	case []byte:
		return parseBool(string(v))
	case string:
		return parseBool(v)
	}
	return nil, conversionError(raw, DataTypeBool)
}

func parseBool(s string) (interface{}, error) {
	switch strings.ToLower(s) {
	case "1", "t", "y", "true", "yes":
		return true, nil
	case "0", "f", "n", "false", "no":
		return false, nil
	}
	return nil, conversionError(s, DataTypeBool)
}

func convertText(raw interface{}) interface{} {
	switch v := raw.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	}
	return fmt.Sprintf("%v", raw)
}

func convertTime(raw interface{}) (interface{}, error) {
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case []byte:
		return parseTime(string(v))
	case string:
		return parseTime(v)
	}
	return nil, conversionError(raw, DataTypeTimestamp)
}

func parseTime(s string) (interface{}, error) {
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
	}
	return nil, conversionError(s, DataTypeTimestamp)
}

func convertBytes(raw interface{}) interface{} {
	switch v := raw.(type) {
	case []byte:
		return v
	case string:
		return []byte(v)
	}
	return []byte(fmt.Sprintf("%v", raw))
}

func conversionError(raw interface{}, dataType DataType) error {
	return errors.Errorf("cannot convert %T value %v to %s", raw, raw, dataType)
}
