// Package storetest holds the behavioural contract every project.Store
// implementation must satisfy.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reelcast/internal/project"
)

// Factory returns a fresh, empty store plus a setter for its clock.
type Factory func(t *testing.T) (project.Store, func(func() time.Time))

// Run exercises the Store contract against stores built by factory.
func Run(t *testing.T, factory Factory) {
	t.Helper()
	t.Run("CreateGet", func(t *testing.T) { testCreateGet(t, factory) })
	t.Run("UnknownIDIsAbsence", func(t *testing.T) { testUnknown(t, factory) })
	t.Run("UpdateMergesAndStamps", func(t *testing.T) { testUpdate(t, factory) })
	t.Run("UpdateResetsStaleOutputs", func(t *testing.T) { testReset(t, factory) })
	t.Run("ConcurrentUpdates", func(t *testing.T) { testConcurrent(t, factory) })
	t.Run("ListAndDeleteBefore", func(t *testing.T) { testListDelete(t, factory) })
}

func sample(id string, created time.Time) *project.Project {
	req := project.Request{
		Topic:          "why testing matters",
		SourcePhotoURL: "https://x/photo.jpg",
		SceneStyle:     "office",
		Tone:           "educational",
		Duration:       60,
	}
	return project.New(req, id, created)
}

func testCreateGet(t *testing.T, factory Factory) {
	store, _ := factory(t)
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Create(ctx, sample("proj_1", created)))
	assert.Error(t, store.Create(ctx, sample("proj_1", created)), "duplicate id must fail")

	got, ok, err := store.Get(ctx, "proj_1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, project.StatusDraft, got.Status)
	assert.Equal(t, project.StepScript, got.CurrentStep)
	assert.Equal(t, "why testing matters", got.Topic)
	assert.Equal(t, "office", got.SceneStyle)
	assert.True(t, got.CreatedAt.Equal(created))
}

func testUnknown(t *testing.T, factory Factory) {
	store, _ := factory(t)
	ctx := context.Background()

	got, ok, err := store.Get(ctx, "proj_missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)

	got, ok, err = store.Update(ctx, "proj_missing", project.Patch{Script: project.Ptr("x")})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)

	deleted, err := store.Delete(ctx, "proj_missing")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func testUpdate(t *testing.T, factory Factory) {
	store, setClock := factory(t)
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	later := created.Add(2 * time.Minute)
	setClock(func() time.Time { return later })

	require.NoError(t, store.Create(ctx, sample("proj_2", created)))
	updated, ok, err := store.Update(ctx, "proj_2", project.Patch{
		Status:         project.Ptr(project.StatusScriptReady),
		Script:         project.Ptr("hello there"),
		ScriptDuration: project.Ptr(1),
		WordCount:      project.Ptr(2),
		ClearStep:      true,
	})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, project.StatusScriptReady, updated.Status)
	assert.Equal(t, "hello there", updated.Script)
	assert.Empty(t, updated.CurrentStep)
	assert.True(t, updated.UpdatedAt.Equal(later), "updatedAt must be stamped")
	assert.True(t, updated.CreatedAt.Equal(created), "createdAt must not move")

	got, _, err := store.Get(ctx, "proj_2")
	require.NoError(t, err)
	assert.Equal(t, "hello there", got.Script)
	assert.Equal(t, "https://x/photo.jpg", got.SourcePhotoURL)
}

func testReset(t *testing.T, factory Factory) {
	store, _ := factory(t)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, sample("proj_r", time.Now())))
	_, _, err := store.Update(ctx, "proj_r", project.Patch{
		Status:             project.Ptr(project.StatusComplete),
		Script:             project.Ptr("old script"),
		AudioURL:           project.Ptr("https://cdn/old.mp3"),
		AudioDuration:      project.Ptr(3),
		BackgroundVideoURL: project.Ptr("https://cdn/bg.mp4"),
		FinalVideoURL:      project.Ptr("https://cdn/final.mp4"),
		ThumbnailURL:       project.Ptr("https://cdn/thumb.jpg"),
		ClearStep:          true,
	})
	require.NoError(t, err)

	updated, ok, err := store.Update(ctx, "proj_r", project.Patch{
		Status: project.Ptr(project.StatusScriptReady),
		Script: project.Ptr("new script"),
		Reset:  project.Dependents(project.StepScript),
	})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "new script", updated.Script)
	assert.Empty(t, updated.AudioURL)
	assert.Zero(t, updated.AudioDuration)
	assert.Empty(t, updated.FinalVideoURL)
	assert.Empty(t, updated.ThumbnailURL)
	assert.Equal(t, "https://cdn/bg.mp4", updated.BackgroundVideoURL, "the background does not depend on the script")

	got, _, err := store.Get(ctx, "proj_r")
	require.NoError(t, err)
	assert.Empty(t, got.FinalVideoURL)
	assert.Equal(t, "new script", got.Script)
}

func testConcurrent(t *testing.T, factory Factory) {
	store, _ := factory(t)
	ctx := context.Background()
	const projects, writes = 4, 10
	for i := 0; i < projects; i++ {
		require.NoError(t, store.Create(ctx, sample(fmt.Sprintf("proj_c%d", i), time.Now())))
	}

	var wg sync.WaitGroup
	errs := make(chan error, projects*writes)
	for i := 0; i < projects; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("proj_c%d", i)
			for j := 0; j < writes; j++ {
				var patch project.Patch
				if j%2 == 0 {
					patch.Script = project.Ptr(fmt.Sprintf("script-%d", j))
				} else {
					patch.AudioURL = project.Ptr(fmt.Sprintf("audio-%d", j))
				}
				if _, _, err := store.Update(ctx, id, patch); err != nil {
					errs <- err
				}
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	for i := 0; i < projects; i++ {
		got, ok, err := store.Get(ctx, fmt.Sprintf("proj_c%d", i))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, fmt.Sprintf("script-%d", writes-2), got.Script, "no write may be lost")
		assert.Equal(t, fmt.Sprintf("audio-%d", writes-1), got.AudioURL, "no write may be lost")
	}
}

func testListDelete(t *testing.T, factory Factory) {
	store, setClock := factory(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, store.Create(ctx, sample(fmt.Sprintf("proj_l%d", i), base.Add(time.Duration(i)*time.Hour))))
	}
	setClock(func() time.Time { return base.Add(24 * time.Hour) })
	_, _, err := store.Update(ctx, "proj_l0", project.Patch{Status: project.Ptr(project.StatusComplete), ClearStep: true})
	require.NoError(t, err)

	all, err := store.List(ctx, project.ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "proj_l2", all[0].ID)

	limited, err := store.List(ctx, project.ListOptions{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)

	complete, err := store.List(ctx, project.ListOptions{Statuses: []project.Status{project.StatusComplete}})
	require.NoError(t, err)
	require.Len(t, complete, 1)
	assert.Equal(t, "proj_l0", complete[0].ID)

	removed, err := store.DeleteBefore(ctx, base.Add(90*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, ok, err := store.Get(ctx, "proj_l1")
	require.NoError(t, err)
	assert.False(t, ok)

	deleted, err := store.Delete(ctx, "proj_l2")
	require.NoError(t, err)
	assert.True(t, deleted)
}
