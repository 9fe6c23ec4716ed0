// Package skills derives skill lists and interview questions from already
// extracted job-description and resume text. PDF parsing and OCR happen
// upstream; this package only sees plain text.
package skills

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/mockview/backend/internal/service/llm"
)

const extractPromptTemplate = `You are an expert HR assistant. Extract a comprehensive list of distinct technical and soft skills
from the following %s. Present them as a comma-separated list.
Do not include any other text.

%s:
%s

Skills:`

const commonPromptTemplate = `Given these lists:
Resume Skills: %s
JD Skills: %s

Identify ONLY skills in BOTH lists.
Return EXACTLY in this JSON format: { "common_skills": [...] }`

const missingPromptTemplate = `Given these lists:
Resume Skills: %s
JD Skills: %s

Identify ONLY skills in JD but NOT in Resume.
Return EXACTLY in this JSON format: { "skills_to_learn": [...] }`

const questionsPromptTemplate = `You are an expert technical interviewer.
Given this JSON of common skills: %s

Generate exactly 10 practical, non-generic interview questions.
Return ONLY JSON: { "questions": ["q1", "q2", ...] }`

var markdownJSONRe = regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```")

// Comparison pairs the overlap and the gap between resume and JD skills.
type Comparison struct {
	CommonSkills  []string `json:"common_skills"`
	SkillsToLearn []string `json:"skills_to_learn"`
}

// Analyzer runs the skill-analysis prompts.
type Analyzer struct {
	generator llm.Generator
}

func NewAnalyzer(generator llm.Generator) *Analyzer {
	return &Analyzer{generator: generator}
}

// ExtractSkills pulls a comma-separated skill list out of resume or JD text.
func (a *Analyzer) ExtractSkills(ctx context.Context, text string, isJD bool) (string, error) {
	label := "Resume Text"
	if isJD {
		label = "Job Description"
	}

	prompt := fmt.Sprintf(extractPromptTemplate, label, label, text)
	response, err := a.generator.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		return "", fmt.Errorf("extract skills: %w", err)
	}
	return strings.TrimSpace(response.Content), nil
}

// Compare returns the skills present in both lists and the ones the resume
// is missing.
func (a *Analyzer) Compare(ctx context.Context, resumeSkills, jdSkills string) (*Comparison, error) {
	var comparison Comparison

	commonRaw, err := a.invoke(ctx, fmt.Sprintf(commonPromptTemplate, resumeSkills, jdSkills))
	if err != nil {
		return nil, err
	}
	var common struct {
		CommonSkills []string `json:"common_skills"`
	}
	if cleaned, ok := CleanJSON(commonRaw); ok {
		_ = json.Unmarshal([]byte(cleaned), &common)
	}
	comparison.CommonSkills = common.CommonSkills

	missingRaw, err := a.invoke(ctx, fmt.Sprintf(missingPromptTemplate, resumeSkills, jdSkills))
	if err != nil {
		return nil, err
	}
	var missing struct {
		SkillsToLearn []string `json:"skills_to_learn"`
	}
	if cleaned, ok := CleanJSON(missingRaw); ok {
		_ = json.Unmarshal([]byte(cleaned), &missing)
	}
	comparison.SkillsToLearn = missing.SkillsToLearn

	return &comparison, nil
}

// GenerateQuestions produces interview questions from the common-skill set.
func (a *Analyzer) GenerateQuestions(ctx context.Context, commonSkills []string) ([]string, error) {
	skillsJSON, err := json.Marshal(map[string][]string{"common_skills": commonSkills})
	if err != nil {
		return nil, err
	}

	raw, err := a.invoke(ctx, fmt.Sprintf(questionsPromptTemplate, skillsJSON))
	if err != nil {
		return nil, err
	}

	var payload struct {
		Questions []string `json:"questions"`
	}
	cleaned, ok := CleanJSON(raw)
	if !ok {
		return nil, fmt.Errorf("question generation returned no JSON")
	}
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, fmt.Errorf("parse questions: %w", err)
	}
	return payload.Questions, nil
}

func (a *Analyzer) invoke(ctx context.Context, prompt string) (string, error) {
	response, err := a.generator.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		return "", fmt.Errorf("skill analysis: %w", err)
	}
	return strings.TrimSpace(response.Content), nil
}

// CleanJSON strips quoting and markdown wrapping from an LLM response that
// should be a JSON object. ok is false when no object remains.
func CleanJSON(raw string) (string, bool) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.Trim(cleaned, "'\"")
	cleaned = strings.ReplaceAll(cleaned, `\'`, "'")

	if strings.Contains(cleaned, "```json") {
		if m := markdownJSONRe.FindStringSubmatch(cleaned); m != nil {
			cleaned = m[1]
		}
	}

	if !json.Valid([]byte(cleaned)) {
		return "", false
	}
	return cleaned, true
}
