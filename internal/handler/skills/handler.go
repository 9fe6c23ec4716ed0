// Package skills exposes JD upload and the resume-versus-JD analysis that
// seeds the interviewer's question pool.
package skills

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mockview/backend/internal/model/interview"
	"github.com/mockview/backend/internal/repository"
	skillsservice "github.com/mockview/backend/internal/service/skills"
	"github.com/mockview/backend/pkg/utils"
)

// SkillAnalyzer runs the LLM skill-analysis prompts.
type SkillAnalyzer interface {
	ExtractSkills(ctx context.Context, text string, isJD bool) (string, error)
	Compare(ctx context.Context, resumeSkills, jdSkills string) (*skillsservice.Comparison, error)
	GenerateQuestions(ctx context.Context, commonSkills []string) ([]string, error)
}

// Handler serves the JD and skill-analysis endpoints.
type Handler struct {
	analyzer SkillAnalyzer
	jds      repository.JobDescriptionRepository
}

func New(analyzer SkillAnalyzer, jds repository.JobDescriptionRepository) *Handler {
	return &Handler{analyzer: analyzer, jds: jds}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/jd", h.handleCreateJD)
	r.Post("/jd/{jdID}/analyze", h.handleAnalyze)
}

// handleCreateJD stores a job description with its extracted skill list.
// The text arrives pre-extracted; PDF parsing is the frontend's problem.
func (h *Handler) handleCreateJD(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username string `json:"username"`
		Filename string `json:"filename"`
		Text     string `json:"jd_text"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Filename == "" || payload.Text == "" {
		utils.RespondError(w, http.StatusBadRequest, "filename and jd_text are required")
		return
	}
	if payload.Username == "" {
		payload.Username = "guest"
	}

	skills, err := h.analyzer.ExtractSkills(r.Context(), payload.Text, true)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "skill extraction failed")
		return
	}

	jd := &interview.JobDescription{
		Username: payload.Username,
		Filename: payload.Filename,
		Text:     payload.Text,
		Skills:   skills,
	}
	if err := h.jds.Create(r.Context(), jd); err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to save job description")
		return
	}

	utils.RespondJSON(w, http.StatusCreated, map[string]any{
		"id":        jd.ID,
		"jd_skills": jd.Skills,
	})
}

// handleAnalyze compares a resume against a stored JD and generates the
// interview question pool from the overlap.
func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	jdID, err := strconv.ParseUint(chi.URLParam(r, "jdID"), 10, 32)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid jd id")
		return
	}

	var payload struct {
		ResumeText string `json:"resume_text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.ResumeText == "" {
		utils.RespondError(w, http.StatusBadRequest, "resume_text is required")
		return
	}

	jd, err := h.jds.FindByID(r.Context(), uint(jdID))
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to load job description")
		return
	}
	if jd == nil {
		utils.RespondError(w, http.StatusNotFound, "job description not found")
		return
	}

	resumeSkills, err := h.analyzer.ExtractSkills(r.Context(), payload.ResumeText, false)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "skill extraction failed")
		return
	}

	comparison, err := h.analyzer.Compare(r.Context(), resumeSkills, jd.Skills)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "skill comparison failed")
		return
	}

	// The analysis is still useful without questions; log and carry on.
	questions, err := h.analyzer.GenerateQuestions(r.Context(), comparison.CommonSkills)
	if err != nil {
		log.Printf("[skills] question generation failed for jd=%d: %v", jdID, err)
		questions = []string{}
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"resume_skills":  resumeSkills,
		"jd_skills":      jd.Skills,
		"common_skills":  comparison.CommonSkills,
		"missing_skills": comparison.SkillsToLearn,
		"questions":      questions,
	})
}
