package replacer

import (
	"reflect"
	"testing"

	cloudevents "github.com/cloudevents/sdk-go/v2"
)

func Test_ConvertToMap(t *testing.T) {
	event := cloudevents.NewEvent()
	event.SetID("evt-1")
	event.SetSource("deploykit/reconciler")
	event.SetType("com.deploykit.deployment.finished")
	event.SetExtension("shard", "3")
	if err := event.SetData(cloudevents.ApplicationJSON, map[string]interface{}{
		"deploymentFile": "shop-staging",
		"commit": map[string]interface{}{
			"id": "deadbeef",
		},
		"empty": nil,
	}); err != nil {
		t.Fatal(err)
	}
	got, err := ConvertToMap(event)
	if err != nil {
		t.Fatalf("ConvertToMap() error = %v", err)
	}
	want := map[string]string{
		"data.deploymentFile": "shop-staging",
		"data.commit.id":      "deadbeef",
		"shard":               "3",
		"id":                  "evt-1",
		"source":              "deploykit/reconciler",
		"specversion":         "1.0",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ConvertToMap() = %v, want %v", got, want)
	}
}
