package protocol

import (
	"errors"

	"voxelpath.ai/internal/sim/path/runtime"
)

// PATH_EVENT (server -> client) mirrors one supervisor lifecycle event.
type PathEventMsg struct {
	Type            string    `json:"type"`
	ProtocolVersion string    `json:"protocol_version"`
	Tick            uint64    `json:"tick"`
	Event           string    `json:"event"`
	GoalID          uint64    `json:"goal_id"`
	Goal            *GoalSpec `json:"goal,omitempty"`
	Dynamic         bool      `json:"dynamic,omitempty"`

	RunID   string     `json:"run_id,omitempty"`
	Result  *ResultMsg `json:"result,omitempty"`
	Reason  string     `json:"reason,omitempty"`
	Code    string     `json:"code,omitempty"`
	Message string     `json:"message,omitempty"`
}

// ResultMsg summarizes one finished search.
type ResultMsg struct {
	Status    string   `json:"status"`
	Cost      float64  `json:"cost"`
	TimeMs    int64    `json:"time_ms"`
	Visited   int      `json:"visited_nodes"`
	Generated int      `json:"generated_nodes"`
	PathLen   int      `json:"path_len"`
	Chunks    int      `json:"chunks,omitempty"`
	Path      [][3]int `json:"path,omitempty"`
}

var codeOf = []struct {
	err  error
	code string
}{
	{runtime.ErrNoPath, ErrNoPath},
	{runtime.ErrTimeout, ErrTimeout},
	{runtime.ErrGoalChanged, ErrGoalChanged},
	{runtime.ErrPathStopped, ErrPathStopped},
	{runtime.ErrDig, ErrDig},
	{runtime.ErrPlace, ErrPlace},
	{runtime.ErrStuck, ErrStuck},
	{runtime.ErrNoScaffolding, ErrNoScaffolding},
}

// CodeOf maps a supervisor error to its wire code. Unrecognized errors are
// E_INTERNAL.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	for _, c := range codeOf {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return ErrInternal
}

// FromEvent converts a supervisor event. withPath includes the node list of
// path_update results.
func FromEvent(ev runtime.Event, tick uint64, withPath bool) PathEventMsg {
	m := PathEventMsg{
		Type:            TypePathEvent,
		ProtocolVersion: Version,
		Tick:            tick,
		Event:           string(ev.Type),
		GoalID:          ev.GoalID,
		Goal:            DescribeGoal(ev.Goal),
		Dynamic:         ev.Dynamic,
		RunID:           ev.RunID,
		Reason:          ev.Reason,
		Code:            CodeOf(ev.Err),
	}
	if ev.Err != nil {
		m.Message = ev.Err.Error()
	}
	if r := ev.Result; r != nil {
		res := &ResultMsg{
			Status:    string(r.Status),
			Cost:      r.Cost,
			TimeMs:    r.Elapsed.Milliseconds(),
			Visited:   r.Visited,
			Generated: r.Generated,
			PathLen:   len(r.Path),
			Chunks:    len(ev.Chunks),
		}
		if withPath {
			res.Path = make([][3]int, 0, len(r.Path))
			for _, mv := range r.Path {
				res.Path = append(res.Path, [3]int{mv.X, mv.Y, mv.Z})
			}
		}
		m.Result = res
	}
	return m
}
