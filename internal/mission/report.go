package mission

import (
	"fmt"
	"io"
	"strings"
)

// WriteReport prints a human-readable summary of res.
func WriteReport(w io.Writer, res *Result) error {
	var b strings.Builder
	fmt.Fprintf(&b, "=== SIMULATION: %s ===\n", res.MissionType)
	fmt.Fprintf(&b, "Strategic Month: %d (Research: %d, Resources: %d)\n", res.Month, res.Research, res.Resources)
	fmt.Fprintf(&b, "Expected Pods: %d\n", res.PodCount)
	for _, p := range res.Pods {
		leader := ""
		if p.IsLeaderPod {
			leader = "COMMANDER "
		}
		fmt.Fprintf(&b, "  Pod %d: [%s%s] (Leader Lvl %d)\n", p.Index, leader, p.Category, p.LeaderLevel)
		for _, a := range p.Aliens {
			mark := " "
			if a.IsMain {
				mark = "*"
			}
			perks := ""
			if len(a.Perks) > 0 {
				perks = " [Perks: " + strings.Join(a.Perks, ", ") + "]"
			}
			fmt.Fprintf(&b, "    %s %s x%d | HP: %d, Aim: %d, Will: %d%s\n", mark, a.Name, a.Count, a.HP, a.Aim, a.Will, perks)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
