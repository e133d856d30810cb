package rpc

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xtding233/alienpod-sim/internal/config"
	"github.com/xtding233/alienpod-sim/internal/mission"
)

const strategyINI = `[XComStrategyAIMutator.XGStrategyAI_Mod]
AbductionPodNumbers=(MinPods=1,MaxPods=1)
AbductionPodTypes=(ID=EPodTypeMod_Soldier,TypeChance=100)
PossibleSoldiers=(MainAlien=eChar_Sectoid,MinAliens=2,MaxAliens=2,MainChance=100,Support1Chance=0,Support2Chance=0,PodChance=1)
TerrorPodTypes=(ID=EPodTypeMod_Terror,TypeChance=1)
PossibleTerrorists=(PodChance=1)
`

type staticSnap struct{ snap *config.Snapshot }

func (s staticSnap) Snapshot() *config.Snapshot { return s.snap }

func dial(t *testing.T) (*MissionClient, *grpc.ClientConn) {
	t.Helper()
	dir := t.TempDir()
	s := config.Defaults()
	s.Sources.StrategyINI = filepath.Join(dir, "strategy.ini")
	s.Sources.GameCoreINI = filepath.Join(dir, "core.ini")
	if err := os.WriteFile(s.Sources.StrategyINI, []byte(strategyINI), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(s.Sources.GameCoreINI, []byte("Characters=(iType=eChar_Sectoid,HP=3,Offense=65,Will=10)\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	snap, err := config.NewLoader(s).Reload()
	if err != nil {
		t.Fatal(err)
	}

	lis := bufconn.Listen(1 << 20)
	srv, _ := NewServer(NewService(staticSnap{snap}, mission.Locked(mission.NewSeededRNG(1))))
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	return NewMissionClient(conn), conn
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestGenerate(t *testing.T) {
	client, _ := dial(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out, err := client.Generate(ctx, mustStruct(t, map[string]any{"mission_type": "Abduction", "research": 56}))
	if err != nil {
		t.Fatal(err)
	}
	m := out.AsMap()
	if m["month"] != float64(2) || m["num_pods"] != float64(1) {
		t.Fatalf("result = %v", m)
	}
	pods := m["pods"].([]any)
	alien := pods[0].(map[string]any)["aliens"].([]any)[0].(map[string]any)
	if alien["name"] != "Sectoid" || alien["count"] != float64(2) || alien["hp"] != float64(3) {
		t.Fatalf("alien = %v", alien)
	}
}

func TestGenerateErrorCodes(t *testing.T) {
	client, _ := dial(t)
	ctx := context.Background()
	cases := []struct {
		req  map[string]any
		want codes.Code
	}{
		{map[string]any{"mission_type": "Raid"}, codes.InvalidArgument},
		{map[string]any{"research": "lots"}, codes.InvalidArgument},
		// terrorist species without MainAlien
		{map[string]any{"mission_type": "Terror"}, codes.FailedPrecondition},
	}
	for _, c := range cases {
		_, err := client.Generate(ctx, mustStruct(t, c.req))
		if status.Code(err) != c.want {
			t.Fatalf("%v: code %v, want %v (%v)", c.req, status.Code(err), c.want, err)
		}
	}
}

func TestStats(t *testing.T) {
	client, _ := dial(t)
	out, err := client.Stats(context.Background(), mustStruct(t, map[string]any{
		"params": map[string]any{"mission_type": "Abduction"},
		"goal":   "alien_count",
		"trials": 25,
		"seed":   9,
	}))
	if err != nil {
		t.Fatal(err)
	}
	st := out.AsMap()["stats"].(map[string]any)
	if st["trials"] != float64(25) || st["mean"] != float64(2) {
		t.Fatalf("stats = %v", st)
	}
	if h := out.AsMap()["histogram"].(map[string]any); h["2"] != float64(25) {
		t.Fatalf("histogram = %v", h)
	}

	_, err = client.Stats(context.Background(), mustStruct(t, map[string]any{"trials": 1e6}))
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("too many trials: %v", err)
	}
	_, err = client.Stats(context.Background(), mustStruct(t, map[string]any{"goal": "tentacles", "trials": 2}))
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("unknown goal: %v", err)
	}
	// the goal is rejected before any mission is generated, so the broken
	// terror tuning never surfaces
	_, err = client.Stats(context.Background(), mustStruct(t, map[string]any{
		"params": map[string]any{"mission_type": "Terror"},
		"goal":   "tentacles",
	}))
	if status.Code(err) != codes.InvalidArgument || !strings.Contains(err.Error(), "unknown goal") {
		t.Fatalf("unknown goal with broken tuning: %v", err)
	}
}

func TestHealth(t *testing.T) {
	_, conn := dial(t)
	hc := healthpb.NewHealthClient(conn)
	for _, svc := range []string{"", ServiceName} {
		resp, err := hc.Check(context.Background(), &healthpb.HealthCheckRequest{Service: svc})
		if err != nil {
			t.Fatal(err)
		}
		if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
			t.Fatalf("%q status = %v", svc, resp.GetStatus())
		}
	}
}
