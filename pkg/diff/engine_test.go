package diff

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"deploykit/reconciler-service/pkg/model"
	"deploykit/reconciler-service/pkg/pool"
	"deploykit/reconciler-service/pkg/statestore"
)

type fakeVCS struct {
	commits map[string]string
	failing map[string]bool
}

func (f fakeVCS) ResolveCommit(_ context.Context, repoURL, ref string) (string, error) {
	if f.failing[repoURL] {
		return "", errors.New("vcs unreachable")
	}
	return f.commits[repoURL+"@"+ref], nil
}

func (f fakeVCS) GetFileContent(_ context.Context, _, _, _ string) ([]byte, error) {
	return nil, errors.New("not implemented")
}

type fakeCI struct {
	builds map[string]string
	err    error
}

func (f fakeCI) GetJobState(_ context.Context, instance, job string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.builds[instance+"/"+job], nil
}

func spec(file, template, target, namespace string) model.TargetSpec {
	return model.TargetSpec{
		File:        model.DeploymentFile{Name: file},
		Template:    model.ResourceTemplate{Name: template, RepoURL: "https://github.com/acme/" + file},
		Target:      model.Target{Name: target, Namespace: namespace, Ref: "0123456789abcdef0123456789abcdef01234567"},
		Namespace:   model.Namespace{Name: namespace, Cluster: "c1", Environment: "prod"},
		Environment: model.Environment{Name: "prod"},
		Parameters:  map[string]string{"app": file},
	}
}

func Test_DiffConfigEmitsWhenStateAbsent(t *testing.T) {
	engine := NewEngine(fakeVCS{}, fakeCI{}, statestore.NewMemoryStore(), pool.New(2))
	got, err := engine.DiffConfig(context.Background(), spec("shop", "backend", "t1", "ns1"))
	if err != nil {
		t.Fatalf("DiffConfig() error = %v", err)
	}
	if got == nil {
		t.Fatal("DiffConfig() = nil, want a trigger for absent state")
	}
	if got.Kind() != model.TriggerKindConfig {
		t.Errorf("Kind() = %v, want config", got.Kind())
	}
}

func Test_DiffIdempotence(t *testing.T) {
	ctx := context.Background()
	store := statestore.NewMemoryStore()
	engine := NewEngine(fakeVCS{}, fakeCI{}, store, pool.New(2))
	targets := []model.TargetSpec{spec("shop", "backend", "t1", "ns1")}

	// branch one: no state committed between runs, the same diff comes back
	first, errs := engine.DiffAll(ctx, targets)
	if len(errs) != 0 || len(first) != 1 {
		t.Fatalf("first DiffAll() = %d results, %v errors", len(first), errs)
	}
	again, _ := engine.DiffAll(ctx, targets)
	if len(again) != 1 || again[0].Spec.StateKey() != first[0].Spec.StateKey() {
		t.Fatalf("uncommitted state must re-emit the same diff, got %d results", len(again))
	}

	// branch two: after committing the observed value the diff disappears
	if err := store.Set(ctx, first[0].Spec.StateKey(), first[0].Spec.NewValue()); err != nil {
		t.Fatal(err)
	}
	third, errs := engine.DiffAll(ctx, targets)
	if len(errs) != 0 || len(third) != 0 {
		t.Fatalf("DiffAll() after commit = %d results, %v errors, want none", len(third), errs)
	}
}

func Test_DiffMovingCommit(t *testing.T) {
	ctx := context.Background()
	store := statestore.NewMemoryStore()
	vcs := fakeVCS{commits: map[string]string{"https://github.com/acme/shop@main": "deadbeef"}}
	engine := NewEngine(vcs, fakeCI{}, store, pool.New(2))

	ts := spec("shop", "backend", "t1", "ns1")
	ts.Target.Ref = "main"
	got, err := engine.DiffMovingCommit(ctx, ts)
	if err != nil || got == nil {
		t.Fatalf("DiffMovingCommit() = (%v, %v), want a trigger", got, err)
	}
	if got.NewValue() != "deadbeef" {
		t.Errorf("NewValue() = %v, want deadbeef", got.NewValue())
	}

	// pinned refs are never diffed
	pinned := spec("shop", "backend", "t1", "ns1")
	if got, err := engine.DiffMovingCommit(ctx, pinned); got != nil || err != nil {
		t.Errorf("DiffMovingCommit() on pinned ref = (%v, %v), want nothing", got, err)
	}

	// recorded commit matches, no diff
	if err := store.Set(ctx, got.StateKey(), "deadbeef"); err != nil {
		t.Fatal(err)
	}
	if got, _ := engine.DiffMovingCommit(ctx, ts); got != nil {
		t.Errorf("DiffMovingCommit() with matching state = %v, want nil", got)
	}
}

func Test_DiffMovingCommitFailureIsolated(t *testing.T) {
	// a resolution failure for one target must not abort diffing the others
	vcs := fakeVCS{
		commits: map[string]string{
			"https://github.com/acme/a@main": "commit-a",
			"https://github.com/acme/c@main": "commit-c",
		},
		failing: map[string]bool{"https://github.com/acme/b": true},
	}
	engine := NewEngine(vcs, fakeCI{}, statestore.NewMemoryStore(), pool.New(3))
	var targets []model.TargetSpec
	for _, file := range []string{"a", "b", "c"} {
		ts := spec(file, "backend", "t1", "ns-"+file)
		ts.Target.Ref = "main"
		targets = append(targets, ts)
	}
	results, errs := engine.DiffAll(context.Background(), targets)
	if len(errs) != 0 {
		t.Fatalf("DiffAll() errors = %v, resolution failures must be swallowed", errs)
	}
	moving := 0
	for _, r := range results {
		if r.Spec.Kind() == model.TriggerKindMovingCommit {
			moving++
		}
	}
	if moving != 2 {
		t.Errorf("got %d moving-commit diffs, want 2 (failing target treated as no diff)", moving)
	}
}

func Test_DiffUpstreamJob(t *testing.T) {
	ctx := context.Background()
	store := statestore.NewMemoryStore()
	ci := fakeCI{builds: map[string]string{"ci.internal/build-shop": "42"}}
	engine := NewEngine(fakeVCS{}, ci, store, pool.New(2))

	ts := spec("shop", "backend", "t1", "ns1")
	ts.Target.UpstreamJob = &model.UpstreamJobRef{Instance: "ci.internal", Job: "build-shop"}
	got, err := engine.DiffUpstreamJob(ctx, ts)
	if err != nil || got == nil || got.NewValue() != "42" {
		t.Fatalf("DiffUpstreamJob() = (%v, %v), want build 42", got, err)
	}
	if err := store.Set(ctx, got.StateKey(), "42"); err != nil {
		t.Fatal(err)
	}
	if got, _ := engine.DiffUpstreamJob(ctx, ts); got != nil {
		t.Errorf("DiffUpstreamJob() with matching state = %v, want nil", got)
	}
}

func Test_DiffUpstreamJobLookupError(t *testing.T) {
	engine := NewEngine(fakeVCS{}, fakeCI{err: errors.New("ci down")}, statestore.NewMemoryStore(), pool.New(2))
	ts := spec("shop", "backend", "t1", "ns1")
	ts.Target.UpstreamJob = &model.UpstreamJobRef{Instance: "ci.internal", Job: "build-shop"}
	_, err := engine.DiffUpstreamJob(context.Background(), ts)
	if model.KindOf(err) != model.KindExternalLookup {
		t.Errorf("KindOf(err) = %v, want %v", model.KindOf(err), model.KindExternalLookup)
	}
}

func Test_DiffContainerImage(t *testing.T) {
	ctx := context.Background()
	store := statestore.NewMemoryStore()
	engine := NewEngine(fakeVCS{}, fakeCI{}, store, pool.New(2))

	image := "registry.internal/shop:1.2.3"
	ts := spec("shop", "backend", "t1", "ns1")
	ts.Target.Image = &image
	got, err := engine.DiffContainerImage(ctx, ts)
	if err != nil || got == nil || got.NewValue() != image {
		t.Fatalf("DiffContainerImage() = (%v, %v), want image trigger", got, err)
	}
	if err := store.Set(ctx, got.StateKey(), image); err != nil {
		t.Fatal(err)
	}
	if got, _ := engine.DiffContainerImage(ctx, ts); got != nil {
		t.Errorf("DiffContainerImage() with matching state = %v, want nil", got)
	}
}

func Test_ConfigHashStable(t *testing.T) {
	a := ConfigHash(map[string]string{"x": "1", "y": "2"})
	b := ConfigHash(map[string]string{"y": "2", "x": "1"})
	if a != b {
		t.Errorf("ConfigHash not stable: %s vs %s", a, b)
	}
	if a == ConfigHash(map[string]string{"x": "1", "y": "3"}) {
		t.Error("different configurations must hash differently")
	}
}
