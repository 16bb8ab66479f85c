package replacer

import (
	"fmt"
	"reflect"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/pkg/errors"
)

// ConvertToMap flattens a cloudevent into dot-separated string fields, the
// form the annotation replacer and pull-request templates consume.
func ConvertToMap(event cloudevents.Event) (map[string]string, error) {
	payload := make(map[string]interface{})
	result := make(map[string]string)
	if err := event.DataAs(&payload); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal event data")
	}
	addKeys("data", result, payload)
	addKeys("", result, event.Extensions())
	result["id"] = event.ID()
	result["source"] = event.Source()
	result["specversion"] = event.SpecVersion()
	return result, nil
}

func addKeys(root string, out map[string]string, in map[string]interface{}) {
	for k, v := range in {
		key := k
		if root != "" {
			key = root + "." + k
		}
		if v == nil {
			continue
		}
		if nested, ok := v.(map[string]interface{}); ok {
			addKeys(key, out, nested)
		} else if reflect.TypeOf(v).Kind() != reflect.Map {
			out[key] = fmt.Sprintf("%v", v)
		}
	}
}
