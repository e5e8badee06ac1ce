package llm

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/pavelanni/lumira/internal/model"
)

var intRegex = regexp.MustCompile(`\d+`)

type routingPayload struct {
	Agent       *int `json:"agent"`
	ChangeTopic int  `json:"change_topic"`
}

// DecodeRouting reads the moderator's answer. The strict stage expects
// {"agent": n, "change_topic": 0|1}, possibly wrapped in prose or a code
// fence; the lenient stage takes the first two integers in the text.
// Anything else routes to model.AgentUnknown without a topic change.
func DecodeRouting(raw string) model.RoutingDecision {
	if d, ok := decodeRoutingJSON(raw); ok {
		return d
	}

	nums := intRegex.FindAllString(raw, 2)
	if len(nums) == 0 {
		return model.RoutingDecision{Agent: model.AgentUnknown}
	}
	agent, err := strconv.Atoi(nums[0])
	if err != nil {
		return model.RoutingDecision{Agent: model.AgentUnknown}
	}
	d := model.RoutingDecision{Agent: model.ParseAgentID(agent)}
	if len(nums) > 1 {
		d.ChangeTopic = nums[1] == "1"
	}
	return d
}

func decodeRoutingJSON(raw string) (model.RoutingDecision, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return model.RoutingDecision{}, false
	}
	var p routingPayload
	if err := json.Unmarshal([]byte(raw[start:end+1]), &p); err != nil || p.Agent == nil {
		return model.RoutingDecision{}, false
	}
	return model.RoutingDecision{
		Agent:       model.ParseAgentID(*p.Agent),
		ChangeTopic: p.ChangeTopic == 1,
	}, true
}
