// Copyright 2023 Lack (xingyys@gmail.com).
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package builder

import (
	"fmt"
	"strconv"

	json "github.com/json-iterator/go"
	"github.com/vine-io/pkg/xname"

	"github.com/vine-io/flowview/bpmn"
)

const (
	ItemTypeString  = "string"
	ItemTypeInteger = "integer"
	ItemTypeFloat   = "float"
	ItemTypeBoolean = "boolean"
	ItemTypeObject  = "object"
)

func randName() string {
	return xname.Gen(xname.C(7), xname.Lowercase(), xname.Digit())
}

func randShapeName(kind bpmn.Kind) string {
	prefix := ""
	switch kind {
	case bpmn.SubProcessKind:
		prefix = "SubProcess"
	case bpmn.EventKind:
		prefix = "Event"
	case bpmn.GatewayKind:
		prefix = "Gateway"
	case bpmn.FlowKind:
		prefix = "Flow"
	default:
		prefix = "Activity"
	}

	return prefix + "_" + randName()
}

func IsGateway(elem *Element) bool {
	return elem.kind == bpmn.GatewayKind
}

func IsStartEvent(elem *Element) bool {
	return elem.tag == "startEvent"
}

func IsEndEvent(elem *Element) bool {
	return elem.tag == "endEvent"
}

// getFlowSize returns the diagram box of an element. Sub-processes are drawn collapsed,
// their content goes to a plane of its own.
func getFlowSize(kind bpmn.Kind) (float64, float64) {
	switch kind {
	case bpmn.SubProcessKind, bpmn.TaskKind:
		return 100, 80
	case bpmn.EventKind:
		return 36, 36
	case bpmn.GatewayKind:
		return 50, 50
	default:
		return 50, 50
	}
}

func parseItemValue(v any) (string, string) {
	switch tt := v.(type) {
	case int, int32, int64, uint, uint32, uint64:
		return fmt.Sprintf("%d", tt), ItemTypeInteger
	case float64:
		return strconv.FormatFloat(tt, 'f', -1, 64), ItemTypeFloat
	case float32:
		return strconv.FormatFloat(float64(tt), 'f', -1, 32), ItemTypeFloat
	case string:
		return tt, ItemTypeString
	case []byte:
		return string(tt), ItemTypeString
	case bool:
		if tt {
			return "true", ItemTypeBoolean
		}
		return "false", ItemTypeBoolean
	default:
		data, _ := json.Marshal(v)
		return string(data), ItemTypeObject
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
