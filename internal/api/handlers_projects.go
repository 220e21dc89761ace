package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"reelcast/internal/project"
	"reelcast/internal/services"
)

// workflowDefaultDuration applies to standalone script requests that omit
// a duration, matching the project default.
const workflowDefaultDuration = 90

func (s *Server) loadProject(c *gin.Context, id string) (*project.Project, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: projectId is required", services.ErrValidation)
	}
	p, ok, err := s.deps.Store.Get(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: project %s", services.ErrNotFound, id)
	}
	return p, nil
}

func (s *Server) handleCreateProject(c *gin.Context) {
	var req project.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "invalid body: "+err.Error(), "validation")
		return
	}
	ctx := c.Request.Context()
	p, err := s.deps.Workflow.CreateProject(ctx, req)
	if err != nil {
		writeError(c, err)
		return
	}
	taskID, err := s.startRun(ctx, p.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, ProjectResponse{Project: FromProject(p), TaskID: taskID})
}

func (s *Server) handleListProjects(c *gin.Context) {
	opts := project.ListOptions{}
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			abort(c, http.StatusBadRequest, "invalid limit", "validation")
			return
		}
		opts.Limit = limit
	}
	for _, value := range c.QueryArray("status") {
		for _, part := range strings.Split(value, ",") {
			status := project.Status(strings.TrimSpace(part))
			if status == "" {
				continue
			}
			if !status.Valid() {
				abort(c, http.StatusBadRequest, fmt.Sprintf("unknown status %q", part), "validation")
				return
			}
			opts.Statuses = append(opts.Statuses, status)
		}
	}
	projects, err := s.deps.Store.List(c.Request.Context(), opts)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ProjectListResponse{Projects: FromProjects(projects)})
}

func (s *Server) handleGetProject(c *gin.Context) {
	p, err := s.loadProject(c, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ProjectResponse{Project: FromProject(p)})
}

func (s *Server) handleDeleteProject(c *gin.Context) {
	id := c.Param("id")
	ok, err := s.deps.Store.Delete(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if !ok {
		writeError(c, fmt.Errorf("%w: project %s", services.ErrNotFound, id))
		return
	}
	s.deps.Events.Forget(id)
	c.Status(http.StatusNoContent)
}

// handleRunStep re-runs one stage. With ?async=1 and a worker queue the run
// is enqueued and 202 is returned.
func (s *Server) handleRunStep(c *gin.Context) {
	id := c.Param("id")
	step, err := project.ParseStep(c.Param("step"))
	if err != nil {
		writeError(c, fmt.Errorf("%w: %w", services.ErrValidation, err))
		return
	}
	ctx := c.Request.Context()
	if async, _ := strconv.ParseBool(c.Query("async")); async && s.deps.Queue != nil {
		if _, err := s.loadProject(c, id); err != nil {
			writeError(c, err)
			return
		}
		taskID, err := s.deps.Queue.EnqueueStep(ctx, id, step)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, EnqueueResponse{ProjectID: id, Status: "queued", TaskID: taskID})
		return
	}
	result, err := s.deps.Workflow.RunStep(ctx, id, step)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleHealth(c *gin.Context) {
	stages := FromStageHealth(s.deps.Workflow.Health(c.Request.Context()))
	status := "healthy"
	for _, st := range stages {
		if !st.Ready {
			status = "degraded"
			break
		}
	}
	c.JSON(http.StatusOK, HealthResponse{Status: status, Stages: stages, Worker: s.deps.Queue != nil})
}

func (s *Server) handleSceneStyles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"styles": FromSceneStyles(s.deps.Styles.Styles())})
}
