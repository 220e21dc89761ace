package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"reelcast/internal/project"
	"reelcast/internal/script"
	"reelcast/internal/services"
)

// Action names accepted by POST /api/talking-video.
const (
	ActionRunWorkflow     = "run_workflow"
	ActionGenerateScript  = "generate_script"
	ActionGenerateVoice   = "generate_voice"
	ActionCreateProject   = "create_project"
	ActionGetProject      = "get_project"
	ActionRunStep         = "run_step"
	ActionEnqueueWorkflow = "enqueue_workflow"
)

func (s *Server) handleAction(c *gin.Context) {
	var req ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "invalid body: "+err.Error(), "validation")
		return
	}
	ctx := c.Request.Context()

	switch strings.TrimSpace(req.Action) {
	case ActionRunWorkflow:
		runCtx, cancel := s.runContext()
		defer cancel()
		runCtx = services.WithRequestID(runCtx, c.GetString(ctxRequestID))
		result, err := s.deps.Workflow.RunWorkflow(runCtx, req.Request, nil)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)

	case ActionGenerateScript:
		s.generateScript(c, ScriptRequest{Topic: req.Topic, Duration: req.Duration, Tone: req.Tone, Style: req.Style})

	case ActionGenerateVoice:
		if s.deps.Voices == nil {
			writeError(c, fmt.Errorf("%w: voice stage not configured", services.ErrConfiguration))
			return
		}
		result, err := s.deps.Voices.Generate(ctx, req.Text, req.VoiceID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)

	case ActionCreateProject:
		p, err := s.deps.Workflow.CreateProject(ctx, req.Request)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"projectId": p.ID, "project": FromProject(p)})

	case ActionGetProject:
		p, err := s.loadProject(c, req.ProjectID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, FromProject(p))

	case ActionRunStep:
		step, err := project.ParseStep(req.Step)
		if err != nil {
			writeError(c, fmt.Errorf("%w: %w", services.ErrValidation, err))
			return
		}
		result, err := s.deps.Workflow.RunStep(ctx, strings.TrimSpace(req.ProjectID), step)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)

	case ActionEnqueueWorkflow:
		p, err := s.deps.Workflow.CreateProject(ctx, req.Request)
		if err != nil {
			writeError(c, err)
			return
		}
		taskID, err := s.startRun(ctx, p.ID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, EnqueueResponse{ProjectID: p.ID, Status: string(p.Status), TaskID: taskID})

	default:
		abort(c, http.StatusBadRequest, fmt.Sprintf("unknown action %q", req.Action), "validation")
	}
}

func (s *Server) generateScript(c *gin.Context, req ScriptRequest) {
	if s.deps.Scripts == nil {
		writeError(c, fmt.Errorf("%w: script stage not configured", services.ErrConfiguration))
		return
	}
	if req.Duration <= 0 {
		req.Duration = workflowDefaultDuration
	}
	result, err := s.deps.Scripts.Generate(c.Request.Context(), script.Request{
		Topic:           req.Topic,
		DurationSeconds: req.Duration,
		Tone:            req.Tone,
		Style:           req.Style,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleScript(c *gin.Context) {
	var req ScriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "invalid body: "+err.Error(), "validation")
		return
	}
	s.generateScript(c, req)
}
