package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/xtding233/alienpod-sim/internal/ini"
	"github.com/xtding233/alienpod-sim/internal/mission"
)

// flexInt accepts 12, 12.0 and "12"; editors send form values as strings.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		*f = flexInt(n)
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("not an integer: %s", b)
	}
	*f = flexInt(int(v))
	return nil
}

// rollParams is the JSON body of /roll and the params of a draft simulation.
// Absent fields take the same defaults as the editor form.
type rollParams struct {
	MissionType string   `json:"mission_type"`
	Research    flexInt  `json:"research"`
	Resources   flexInt  `json:"resources"`
	Difficulty  *flexInt `json:"difficulty"`
	Landed      *bool    `json:"landed"`
	ShipType    string   `json:"ship_type"`
}

func (p rollParams) request() mission.Request {
	req := mission.Request{
		MissionType: mission.MissionType(p.MissionType),
		Research:    int(p.Research),
		Resources:   int(p.Resources),
		Difficulty:  1,
		Landed:      true,
		ShipType:    mission.ShipType(p.ShipType),
	}
	if req.MissionType == "" {
		req.MissionType = mission.Abduction
	}
	if p.Difficulty != nil {
		req.Difficulty = int(*p.Difficulty)
	}
	if p.Landed != nil {
		req.Landed = *p.Landed
	}
	return req
}

type draftBody struct {
	Config *ini.Store  `json:"config"`
	Params *rollParams `json:"params"`
}

type statsBody struct {
	Params *rollParams       `json:"params"`
	Goal   mission.TrialGoal `json:"goal"`
	Trials int               `json:"trials"`
	Seed   *uint64           `json:"seed"`
}

func (b *statsBody) normalize() error {
	var err error
	if b.Goal, b.Trials, err = mission.NormalizeTrials(b.Goal, b.Trials); err != nil {
		return err
	}
	if b.Params == nil {
		b.Params = &rollParams{}
	}
	return nil
}

// statsFromQuery builds a stats request from GET query parameters.
func statsFromQuery(r *http.Request) (statsBody, error) {
	q := r.URL.Query()
	p := rollParams{MissionType: q.Get("mission_type"), ShipType: q.Get("ship_type")}
	var b statsBody
	for _, f := range []struct {
		key string
		dst *flexInt
	}{{"research", &p.Research}, {"resources", &p.Resources}} {
		if n, ok, err := parseInt(r, f.key); err != nil {
			return b, err
		} else if ok {
			*f.dst = flexInt(n)
		}
	}
	if n, ok, err := parseInt(r, "difficulty"); err != nil {
		return b, err
	} else if ok {
		d := flexInt(n)
		p.Difficulty = &d
	}
	if s := q.Get("landed"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return b, fmt.Errorf("invalid landed")
		}
		p.Landed = &v
	}
	if n, ok, err := parseInt(r, "trials"); err != nil {
		return b, err
	} else if ok {
		b.Trials = n
	}
	if s := q.Get("seed"); s != "" {
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return b, fmt.Errorf("invalid seed")
		}
		b.Seed = &v
	}
	b.Goal = mission.TrialGoal(q.Get("goal"))
	b.Params = &p
	return b, nil
}

func parseInt(r *http.Request, key string) (int, bool, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return 0, false, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false, fmt.Errorf("invalid %s", key)
	}
	return v, true, nil
}
