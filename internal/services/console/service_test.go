package console

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"nathanbeddoewebdev/gcpm/internal/catalog"
	"nathanbeddoewebdev/gcpm/internal/domain"
	"nathanbeddoewebdev/gcpm/internal/executor"
	"nathanbeddoewebdev/gcpm/internal/pipeline"

	"github.com/google/go-cmp/cmp"
)

func testCatalog(t *testing.T, baseURL string) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New(catalog.Endpoints{
		ResourceManager: baseURL + "/v1/projects",
		Firebase:        baseURL + "/v1beta1/projects",
		ServiceUsage:    baseURL + "/v1/services",
		Identity:        baseURL + "/admin/v2/projects",
		Firestore:       baseURL + "/v1/projects",
		Storage:         baseURL + "/storage/v1/b",
		Billing:         baseURL + "/v1/billingAccounts",
	}, []domain.CheckSpec{
		{Name: "Resource Manager", URLTemplate: baseURL + "/v1/projects?key={key}"},
		{Name: "Firestore", URLTemplate: baseURL + "/v1/projects/{project}/databases?key={key}"},
	})
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	return cat
}

func TestProvision_SimulatedRun(t *testing.T) {
	var stages []string
	svc := NewService(nil,
		WithDelays(executor.Delays{}),
		WithObserver(pipeline.ObserverFuncs{Stage: func(s domain.Stage) {
			stages = append(stages, string(s.Key)+":"+string(s.Status))
		}}),
	)

	req := ProvisionRequest{Request: pipeline.Request{TargetID: "proj-1", DisplayName: "Proj One"}}
	run, err := svc.Provision(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("Provision failed: %v", err)
	}
	if !run.Succeeded() {
		t.Error("expected all stages to succeed")
	}
	if len(stages) != 12 {
		t.Errorf("expected 12 stage notifications, got %d", len(stages))
	}

	current, ok := svc.Current()
	if !ok {
		t.Fatal("expected a current run")
	}
	if diff := cmp.Diff(run, current); diff != "" {
		t.Errorf("current run differs (-want +got):\n%s", diff)
	}
}

func TestProvision_RejectsConcurrentRun(t *testing.T) {
	svc := NewService(nil, WithDelays(executor.Delays{CreateProject: time.Hour}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{})
	var once sync.Once
	obs := pipeline.ObserverFuncs{Stage: func(s domain.Stage) {
		if s.Status == domain.StageStatusRunning {
			once.Do(func() { close(started) })
		}
	}}

	type result struct {
		run *domain.Run
		err error
	}
	done := make(chan result, 1)
	req := ProvisionRequest{Request: pipeline.Request{TargetID: "proj-1", DisplayName: "Proj One"}}
	go func() {
		run, err := svc.Provision(ctx, req, obs)
		done <- result{run, err}
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("first run never started")
	}

	if !svc.Busy() {
		t.Error("expected service to report busy")
	}
	if _, err := svc.Provision(context.Background(), req, nil); !errors.Is(err, ErrRunInProgress) {
		t.Errorf("expected ErrRunInProgress, got %v", err)
	}

	current, ok := svc.Current()
	if !ok {
		t.Fatal("expected in-flight run snapshot")
	}
	if got := current.Stage(domain.StageCreateProject).Status; got != domain.StageStatusRunning {
		t.Errorf("expected create_project running, got %s", got)
	}

	cancel()
	var res result
	select {
	case res = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("first run did not stop after cancel")
	}
	if !errors.Is(res.err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", res.err)
	}
	if got := res.run.Stage(domain.StageCreateProject).Status; got != domain.StageStatusFailed {
		t.Errorf("expected interrupted stage to fail, got %s", got)
	}

	if svc.Busy() {
		t.Error("expected service to be idle after the run")
	}
	svcFast := NewService(nil, WithDelays(executor.Delays{}))
	if _, err := svcFast.Provision(context.Background(), req, nil); err != nil {
		t.Errorf("expected a fresh run to start, got %v", err)
	}
}

func TestProvision_LiveWithoutToken(t *testing.T) {
	svc := NewService(nil)

	run, err := svc.Provision(context.Background(), ProvisionRequest{
		Request: pipeline.Request{TargetID: "proj-1", DisplayName: "Proj One"},
		Mode:    domain.ModeLive,
	}, nil)

	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if run != nil {
		t.Errorf("expected no run, got %+v", run)
	}
	if _, ok := svc.Current(); ok {
		t.Error("expected no current run")
	}
}

func TestProvision_LiveWithoutTokenAndMissingInput(t *testing.T) {
	svc := NewService(nil)

	run, err := svc.Provision(context.Background(), ProvisionRequest{
		Request: pipeline.Request{TargetID: " ", DisplayName: "Proj One"},
		Mode:    domain.ModeLive,
	}, nil)

	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	var stageErr *domain.StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("expected a *domain.StageError, got %T", err)
	}
	if run == nil {
		t.Fatal("expected the rejected run to be returned")
	}
	if run.Mode != domain.ModeLive {
		t.Errorf("expected live mode, got %s", run.Mode)
	}
	want := []string{"Error: Missing project ID or display name"}
	var got []string
	for _, e := range run.Log {
		got = append(got, e.Message)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("log mismatch (-want +got):\n%s", diff)
	}
	for _, s := range run.Stages {
		if s.Status != domain.StageStatusPending {
			t.Errorf("expected %s pending, got %s", s.Key, s.Status)
		}
	}

	current, ok := svc.Current()
	if !ok {
		t.Fatal("expected the rejected run to be current")
	}
	if diff := cmp.Diff(run, current); diff != "" {
		t.Errorf("current run differs (-want +got):\n%s", diff)
	}
}

func TestProvision_RunHookSeesEveryOutcome(t *testing.T) {
	var kinds []string
	svc := NewService(nil,
		WithDelays(executor.Delays{}),
		WithRunHook(func(run *domain.Run, err error) {
			if run == nil {
				t.Error("expected a run in the hook")
			}
			kinds = append(kinds, domain.Kind(err))
		}),
	)

	complete := ProvisionRequest{Request: pipeline.Request{TargetID: "proj-1", DisplayName: "Proj One"}}
	if _, err := svc.Provision(context.Background(), complete, nil); err != nil {
		t.Fatalf("Provision failed: %v", err)
	}
	svc.Provision(context.Background(), ProvisionRequest{Request: pipeline.Request{TargetID: "proj-1"}}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.Provision(ctx, complete, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	want := []string{"", "ValidationError", "TransportError"}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Errorf("hook calls mismatch (-want +got):\n%s", diff)
	}
}

func TestProbe_UsesCatalogAndHooks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/projects/proj-1/databases" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"projects":[]}`))
	}))
	defer srv.Close()

	var mu sync.Mutex
	var hooked, perCall int
	svc := NewService(testCatalog(t, srv.URL),
		WithProbeClient(srv.Client()),
		WithProbeConcurrency(2),
		WithProbeHook(func(int, domain.CheckResult) {
			mu.Lock()
			hooked++
			mu.Unlock()
		}),
	)

	results, err := svc.Probe(context.Background(), ProbeRequest{APIKey: "k", ProjectID: "proj-1"}, func(int, domain.CheckResult) {
		mu.Lock()
		perCall++
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Name != "Resource Manager" || results[0].StatusCode != http.StatusOK {
		t.Errorf("unexpected first result %+v", results[0])
	}
	if results[1].Name != "Firestore" || results[1].StatusCode != http.StatusForbidden || !results[1].IsSuccess {
		t.Errorf("unexpected second result %+v", results[1])
	}
	if hooked != 2 || perCall != 2 {
		t.Errorf("expected both hooks called twice, got service=%d call=%d", hooked, perCall)
	}
}

func TestProbe_RejectsConcurrentProbe(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case entered <- struct{}{}:
		default:
		}
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	svc := NewService(testCatalog(t, srv.URL), WithProbeClient(srv.Client()))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = svc.Probe(context.Background(), ProbeRequest{APIKey: "k", ProjectID: "p"}, nil)
	}()

	<-entered
	if _, err := svc.Probe(context.Background(), ProbeRequest{APIKey: "k", ProjectID: "p"}, nil); !errors.Is(err, ErrRunInProgress) {
		t.Errorf("expected ErrRunInProgress, got %v", err)
	}

	close(release)
	<-done
}
