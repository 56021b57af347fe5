package utility

import (
	"fmt"
	"reflect"

	"go.mongodb.org/mongo-driver/bson"
)

// ToMap chuyển struct (hoặc map) sang map[string]interface{} thông qua bson marshal/unmarshal,
// nhờ đó tôn trọng bson tag của model (omitempty, tên field).
func ToMap(s interface{}) (map[string]interface{}, error) {
	if m, ok := s.(map[string]interface{}); ok {
		return m, nil
	}

	val := reflect.ValueOf(s)
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil, fmt.Errorf("không thể chuyển nil pointer sang map")
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct && val.Kind() != reflect.Map {
		return nil, fmt.Errorf("kiểu %s không chuyển được sang map", val.Kind())
	}

	var stringInterfaceMap map[string]interface{}
	raw, err := bson.Marshal(val.Interface())
	if err != nil {
		return nil, fmt.Errorf("bson marshal failed: %w", err)
	}
	if err := bson.Unmarshal(raw, &stringInterfaceMap); err != nil {
		return nil, fmt.Errorf("bson unmarshal failed: %w", err)
	}
	return stringInterfaceMap, nil
}
