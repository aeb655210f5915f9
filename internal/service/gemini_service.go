package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"sahayak/internal/config"
)

// PromptContext carries the classroom details interpolated into the generation prompt.
type PromptContext struct {
	Subject      string
	Grade        string
	Topic        string
	StudentCount int
	Urgency      string
	Language     string
}

// GenerationResult is the outcome of a playbook generation attempt. Text is
// always usable: when generation fails it holds the fallback playbook so the
// pipeline can keep going without the AI.
type GenerationResult struct {
	Success     bool
	Text        string
	ErrorDetail string
}

// GeminiService generates teaching playbooks through the Gemini REST API.
type GeminiService struct {
	cfg    *config.AIConfig
	client *http.Client
	logger *zap.Logger
}

// NewGeminiService creates a GeminiService from the given AI configuration.
func NewGeminiService(cfg *config.AIConfig, logger *zap.Logger) *GeminiService {
	return &GeminiService{
		cfg: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond,
		},
		logger: logger,
	}
}

// IsAvailable reports whether a usable API key is configured.
func (s *GeminiService) IsAvailable() bool {
	return s.cfg.IsEnabled()
}

// Model returns the configured model name.
func (s *GeminiService) Model() string {
	return s.cfg.Model
}

// Gemini REST wire format.
type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig config.GenerationParams `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// GeneratePlaybook builds the pedagogy prompt for the problem and classroom
// context and runs it through Gemini.
func (s *GeminiService) GeneratePlaybook(ctx context.Context, problem string, pctx PromptContext) GenerationResult {
	s.logger.Info("generating playbook", zap.String("problem", truncate(problem, 50)))
	prompt := buildPedagogyPrompt(problem, pctx)
	return s.generate(ctx, prompt)
}

// generate sends the prompt to Gemini and extracts the response text. It never
// returns an error: every failure mode degrades to the fallback playbook with
// the cause recorded in ErrorDetail.
func (s *GeminiService) generate(ctx context.Context, prompt string) GenerationResult {
	if !s.IsAvailable() {
		s.logger.Warn("gemini not configured, using fallback playbook")
		return s.failure("Gemini AI not configured. Please set GEMINI_API_KEY.")
	}

	reqBody := geminiRequest{
		Contents:         []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: s.cfg.Generation,
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return s.failure(fmt.Sprintf("failed to marshal request: %v", err))
	}

	url := fmt.Sprintf("%s?key=%s", s.cfg.ModelEndpoint(), s.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonData))
	if err != nil {
		return s.failure(fmt.Sprintf("failed to create request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Error("gemini request failed", zap.Error(err))
		return s.failure(fmt.Sprintf("request failed: %v", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return s.failure(fmt.Sprintf("failed to read response: %v", err))
	}

	if resp.StatusCode != http.StatusOK {
		s.logger.Error("gemini returned non-200 status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body))
		return s.failure(fmt.Sprintf("API request failed with status %d: %s", resp.StatusCode, string(body)))
	}

	var geminiResp geminiResponse
	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return s.failure(fmt.Sprintf("failed to parse response: %v", err))
	}
	if geminiResp.Error != nil {
		return s.failure(fmt.Sprintf("API error: %s", geminiResp.Error.Message))
	}
	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		s.logger.Warn("gemini returned empty response")
		return s.failure("Empty response from Gemini")
	}

	var sb strings.Builder
	for _, part := range geminiResp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		s.logger.Warn("gemini returned empty response")
		return s.failure("Empty response from Gemini")
	}

	s.logger.Info("gemini response received",
		zap.Int("chars", len(text)),
		zap.Duration("elapsed", time.Since(start)))
	return GenerationResult{Success: true, Text: text}
}

func (s *GeminiService) failure(detail string) GenerationResult {
	return GenerationResult{Success: false, Text: fallbackPlaybook, ErrorDetail: detail}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}

// buildPedagogyPrompt fills the playbook prompt template. Empty context fields
// fall back to neutral values so the template never renders blanks.
func buildPedagogyPrompt(problem string, pctx PromptContext) string {
	subject := pctx.Subject
	if subject == "" {
		subject = "General"
	}
	grade := pctx.Grade
	if grade == "" {
		grade = "Unknown"
	}
	topic := pctx.Topic
	if topic == "" {
		topic = "Unknown"
	}
	studentCount := pctx.StudentCount
	if studentCount <= 0 {
		studentCount = 30
	}
	urgency := pctx.Urgency
	if urgency == "" {
		urgency = "medium"
	}
	language := pctx.Language
	if language == "" {
		language = "English"
	}

	return fmt.Sprintf(pedagogyPromptTemplate,
		problem, subject, grade, topic, studentCount, urgency, language, language)
}

const pedagogyPromptTemplate = `You are SAHAYAK AI, an expert pedagogy coach for government school teachers in India.

## TEACHER'S EMERGENCY REQUEST
"%s"

## CLASSROOM CONTEXT
- Subject: %s
- Grade/Class: %s
- Topic: %s
- Number of Students: %d
- Urgency Level: %s
- Language Preference: %s

## YOUR TASK
Generate an immediate teaching rescue playbook with helpful resources. The teacher needs help RIGHT NOW.

## OUTPUT FORMAT (Use this exact structure with markdown):

### Title
[Brief title for this rescue strategy - specific to the problem]

### Summary
[One paragraph summary of the approach tailored to this specific classroom situation]

### Immediate Actions (Do RIGHT NOW - 30 seconds)
1. [First immediate action]
2. [Second immediate action]
3. [Third immediate action]

### Recovery Steps (Next 10-15 minutes)
**Step 1: [Step Title]** (X minutes)
- What to do: [Detailed instruction]
- What to say: "[Exact teacher dialogue]"
- Expected outcome: [What should happen]

**Step 2: [Step Title]** (X minutes)
- What to do: [Detailed instruction]
- What to say: "[Exact teacher dialogue]"
- Expected outcome: [What should happen]

**Step 3: [Step Title]** (X minutes)
- What to do: [Detailed instruction]
- What to say: "[Exact teacher dialogue]"
- Expected outcome: [What should happen]

### Alternative Strategies
If the main approach doesn't work:
1. [Alternative 1 - specific to this problem]
2. [Alternative 2 - creative approach]

### Success Indicators
How to know if the strategy is working:
- [Indicator 1]
- [Indicator 2]
- [Indicator 3]

### YouTube Videos (Recommended for this topic)
Provide 2-3 relevant educational YouTube videos that the teacher can show students or use for reference:
1. **[Video Title]** - https://youtube.com/watch?v=[video_id] - [Brief description, 5-10 min]
2. **[Video Title]** - https://youtube.com/watch?v=[video_id] - [Brief description]
3. **[Video Title]** - https://youtube.com/watch?v=[video_id] - [Brief description]

(Use real, popular educational YouTube channels like: Khan Academy India, BYJU'S, Vedantu, Unacademy, NCERT Official, Diksha, LearnVern, etc.)

### NCERT Reference
- **Chapter**: [NCERT Book Name, Class X, Chapter Y - Chapter Name]
- **Page Numbers**: [Relevant page numbers]
- **Key Concepts**: [Concepts covered in this section]

### Teaching Resources
1. **DIKSHA App**: [Specific module or lesson name]
2. **NCERT Textbook**: [Chapter and section reference]
3. **Online Resource**: [Any free educational website]

### Quick Teaching Tips
- 💡 [Tip 1 - specific to this topic]
- 💡 [Tip 2 - classroom management tip]
- 💡 [Tip 3 - engagement tip]

### Time Estimate: [X] minutes
### Difficulty: [Easy/Medium/Hard]

## IMPORTANT GUIDELINES
- Be SPECIFIC to the actual problem described
- Only use materials typically available in government schools
- Instructions must be doable by a single teacher
- Strategies should work for large class sizes (30-50 students)
- Use culturally appropriate examples for Indian context
- Keep language simple and actionable
- DO NOT give generic advice - tailor everything to this specific situation
- For YouTube videos, suggest REAL educational channels popular in India
- NCERT references should be accurate for the grade level

## LANGUAGE INSTRUCTION (CRITICAL):
Generate the ENTIRE playbook in **%s** language.
- If language is "Hindi": Write everything in Hindi (Devanagari script). Use हिंदी for all content.
- If language is "Kannada": Write everything in Kannada (ಕನ್ನಡ script). Use ಕನ್ನಡ for all content.
- If language is "English": Write in simple English suitable for government school teachers.
Keep markdown headers in English for parsing, but ALL content (title, summary, actions, tips) MUST be in the requested language.
`

const fallbackPlaybook = `
## Teaching Rescue Playbook

### Title
Classroom Recovery Strategy

### Summary
This is a generic fallback playbook. For personalized AI-generated strategies, please ensure your Gemini API key is properly configured.

### Immediate Actions (Do RIGHT NOW - 30 seconds)
1. Take a deep breath and pause the current activity
2. Get students' attention using a signal (clap pattern, bell)
3. Acknowledge the challenge: "I can see some of us are finding this tricky"

### Recovery Steps (Next 10-15 minutes)
**Step 1: Step Back** (3 minutes)
- What to do: Revisit the prerequisite concept briefly
- What to say: "Let's take a quick step back and review what we learned before"
- Expected outcome: Students recall prior knowledge

**Step 2: Concrete Example** (4 minutes)
- What to do: Use a real-world example students can relate to
- What to say: "Let me show you how this works in everyday life"
- Expected outcome: Students connect abstract concept to reality

**Step 3: Peer Support** (5 minutes)
- What to do: Pair students who understand with those who need help
- What to say: "Turn to your partner and explain what you understood"
- Expected outcome: Peer teaching reinforces learning

### Alternative Strategies
1. Try a visual representation (drawing, diagram)
2. Use manipulatives if available
3. Break the problem into smaller steps

### Success Indicators
- Students asking clarifying questions (shows engagement)
- At least 60% can explain the concept to a partner
- Reduced confusion visible on faces

### Time Estimate: 15 minutes
### Difficulty: Medium

*Note: This is a generic fallback playbook. Configure your Gemini API key for personalized AI-generated strategies.*
`
