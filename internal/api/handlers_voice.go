package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"reelcast/internal/services"
)

func (s *Server) voices(c *gin.Context) bool {
	if s.deps.Voices == nil {
		writeError(c, fmt.Errorf("%w: voice stage not configured", services.ErrConfiguration))
		return false
	}
	return true
}

func (s *Server) handleListVoices(c *gin.Context) {
	if !s.voices(c) {
		return
	}
	voices, err := s.deps.Voices.ListVoices(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"voices": voices})
}

func (s *Server) handleGetVoice(c *gin.Context) {
	if !s.voices(c) {
		return
	}
	v, err := s.deps.Voices.GetVoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"voice": v})
}

// handleVoiceStream relays the provider's audio stream as it renders.
func (s *Server) handleVoiceStream(c *gin.Context) {
	if !s.voices(c) {
		return
	}
	var req VoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "invalid body: "+err.Error(), "validation")
		return
	}
	body, contentType, err := s.deps.Voices.Stream(c.Request.Context(), req.Text, req.VoiceID)
	if err != nil {
		writeError(c, err)
		return
	}
	defer body.Close()
	c.DataFromReader(http.StatusOK, -1, contentType, body, nil)
}
