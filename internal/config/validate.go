package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xtding233/alienpod-sim/internal/catalog"
	"github.com/xtding233/alienpod-sim/internal/ini"
	"github.com/xtding233/alienpod-sim/internal/structtext"
)

// ValidateSettings checks semantic constraints of Settings.
func ValidateSettings(s Settings) error {
	var errs []string

	if s.Server.HTTPAddr == "" {
		errs = append(errs, "server.http_addr is required")
	}
	if s.Server.GRPCAddr == "" {
		errs = append(errs, "server.grpc_addr is required")
	}
	if s.Server.HTTPAddr != "" && s.Server.HTTPAddr == s.Server.GRPCAddr {
		errs = append(errs, "server.http_addr and server.grpc_addr must differ")
	}
	if s.Sources.StrategyINI == "" {
		errs = append(errs, "sources.strategy_ini is required")
	}
	if s.Sources.GameCoreINI == "" {
		errs = append(errs, "sources.game_core_ini is required")
	}
	if s.Watch.On() && s.Watch.IntervalMS <= 0 {
		errs = append(errs, "watch.interval_ms must be > 0 when watch is enabled")
	}
	if _, ok := logLevels[s.Log.Level]; !ok {
		errs = append(errs, "log.level must be one of: debug, info, warn, error")
	}

	if len(errs) > 0 {
		return fmt.Errorf("settings validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Finding is one problem in the tuning store. Findings never stop generation
// unless strict validation is on.
type Finding struct {
	Key     string `json:"key"`
	Message string `json:"message"`
}

func (f Finding) String() string { return f.Key + ": " + f.Message }

const (
	monthlySuffix = "MonthlyModifiers"
	charNone      = "eChar_None"
)

// ValidateStore inspects section of s for problems that generation would
// either fail on or silently work around:
//   - struct values with segments that have no '='
//   - species lists ("Possible...") whose entries lack MainAlien
//   - monthly modifier lists whose Month values are not ascending; the scan
//     stops at the first future month, so later entries would be unreachable
//   - species overrides without a numeric Month or ID
//
// It returns every finding plus one error joining them, or nil.
func ValidateStore(s *ini.Store, section string) ([]Finding, error) {
	sec, ok := s.Section(section)
	if !ok {
		f := []Finding{{Key: section, Message: "section missing; every key takes its default"}}
		return f, joinFindings(f)
	}

	var out []Finding
	add := func(key, format string, args ...any) {
		out = append(out, Finding{Key: key, Message: fmt.Sprintf(format, args...)})
	}

	for _, key := range sec.Keys() {
		raw := s.Get(section, key, nil)
		structs := make([]structtext.Struct, 0, len(raw))
		for i, r := range raw {
			if !structtext.LooksLikeStruct(r) {
				continue
			}
			st := structtext.Parse(r)
			if len(st.Malformed) > 0 {
				add(key, "entry %d has segments without '=': %s", i, strings.Join(st.Malformed, ", "))
			}
			structs = append(structs, st)
		}

		if strings.HasPrefix(key, "Possible") {
			for i, st := range structs {
				if v, _ := st.Get("MainAlien"); v == "" {
					add(key, "entry %d has no MainAlien", i)
				}
			}
		}

		if strings.HasSuffix(key, monthlySuffix) {
			speciesList := !strings.Contains(key, "Pod")
			last := -1
			for i, st := range structs {
				m, ok := st.Get("Month")
				if !ok {
					if speciesList {
						add(key, "entry %d has no Month", i)
					}
					// pod modifiers without Month sort as month 999
					m = "999"
				}
				month, err := strconv.Atoi(m)
				if err != nil {
					add(key, "entry %d Month %q is not numeric", i, m)
					continue
				}
				if month < last {
					add(key, "entry %d Month %d comes after month %d and will never apply past it", i, month, last)
				}
				last = max(last, month)
				if speciesList {
					if id, ok := st.Get("ID"); !ok {
						add(key, "entry %d has no ID", i)
					} else if _, err := strconv.Atoi(id); err != nil {
						add(key, "entry %d ID %q is not numeric", i, id)
					}
				}
			}
		}
	}
	return out, joinFindings(out)
}

// CheckCharacters reports species entries naming a character type the game
// core does not define. Such aliens still spawn, with catalog.DefaultStats.
func CheckCharacters(s *ini.Store, section string, cat *catalog.Catalog) []Finding {
	sec, ok := s.Section(section)
	if !ok {
		return nil
	}
	var out []Finding
	for _, key := range sec.Keys() {
		if !strings.HasPrefix(key, "Possible") {
			continue
		}
		for i, r := range s.Get(section, key, nil) {
			st := structtext.Parse(r)
			for _, field := range []string{"MainAlien", "SupportAlien1", "SupportAlien2"} {
				ch, ok := st.Get(field)
				if !ok || ch == "" || ch == charNone || cat.Known(ch) {
					continue
				}
				out = append(out, Finding{
					Key:     key,
					Message: fmt.Sprintf("entry %d %s %s is not in the game core; default stats apply", i, field, ch),
				})
			}
		}
	}
	return out
}

func joinFindings(fs []Finding) error {
	if len(fs) == 0 {
		return nil
	}
	msgs := make([]string, len(fs))
	for i, f := range fs {
		msgs[i] = f.String()
	}
	return fmt.Errorf("config validation failed: %s", strings.Join(msgs, "; "))
}
