package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/abhisek/practest/internal/quiz"
	"github.com/abhisek/practest/internal/server/event"
	"github.com/abhisek/practest/internal/server/repo"
)

// defaultResultsLimit caps GET /results when no limit is given.
const defaultResultsLimit = 20

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) fail(c *gin.Context, status int, err error) {
	_ = c.Error(err)
	msg := err.Error()
	if status >= 500 {
		msg = http.StatusText(status)
	}
	c.AbortWithStatusJSON(status, errorBody{Error: msg})
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listSubjects(c *gin.Context) {
	subs, err := s.repo.Subjects(c.Request.Context())
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	if subs == nil {
		subs = []quiz.Subject{}
	}
	c.JSON(http.StatusOK, subs)
}

// listTopics returns the topics of a subject. With ?userId= the completed
// counters of that user are filled in.
func (s *Server) listTopics(c *gin.Context) {
	ctx := c.Request.Context()
	topics, err := s.repo.Topics(ctx, c.Param("subject"))
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	if userID := c.Query("userId"); userID != "" {
		done, err := s.repo.Progress(ctx, userID)
		if err != nil {
			s.fail(c, http.StatusInternalServerError, err)
			return
		}
		for i := range topics {
			topics[i].CompletedQuestions = min(done[topics[i].ID], topics[i].TotalQuestions)
		}
	}
	if topics == nil {
		topics = []quiz.Topic{}
	}
	c.JSON(http.StatusOK, topics)
}

type generateQuery struct {
	Subject       string   `form:"subject"`
	Topics        []string `form:"topics"`
	Duration      int      `form:"duration"`
	QuestionCount int      `form:"questionCount"`
	Difficulty    []string `form:"difficulty"`
	QuestionTypes []string `form:"questionTypes"`
	UserID        string   `form:"userId"`
}

func (q generateQuery) config() quiz.TestConfig {
	cfg := quiz.TestConfig{
		Subject:       q.Subject,
		Topics:        q.Topics,
		Duration:      q.Duration,
		QuestionCount: q.QuestionCount,
	}
	for _, d := range q.Difficulty {
		cfg.Difficulty = append(cfg.Difficulty, quiz.Difficulty(d))
	}
	for _, t := range q.QuestionTypes {
		cfg.QuestionTypes = append(cfg.QuestionTypes, quiz.QuestionType(t))
	}
	return cfg
}

func (s *Server) generateTest(c *gin.Context) {
	var q generateQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	cfg := q.config()
	if err := cfg.Validate(); err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}

	qs, err := s.buildTest(c.Request.Context(), cfg, q.UserID)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	if len(qs) == 0 {
		s.fail(c, http.StatusNotFound, errors.New("no questions match the requested configuration"))
		return
	}
	c.JSON(http.StatusOK, qs)
}

type resultBody struct {
	UserID    string              `json:"userId"`
	Subject   string              `json:"subject"`
	Questions []quiz.TestQuestion `json:"questions"`
	Score     float64             `json:"score"`
	TimeTaken int                 `json:"timeTaken"`
}

func (s *Server) saveResult(c *gin.Context) {
	var body resultBody
	if err := c.ShouldBindJSON(&body); err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	if body.UserID == "" || body.Subject == "" {
		s.fail(c, http.StatusBadRequest, errors.New("userId and subject are required"))
		return
	}
	if body.Score < 0 || body.Score > 100 || body.TimeTaken < 0 {
		s.fail(c, http.StatusBadRequest, errors.New("score or timeTaken out of range"))
		return
	}

	ctx := c.Request.Context()
	var improvement float64
	prev, err := s.repo.LatestResult(ctx, body.UserID, body.Subject)
	switch {
	case err == nil:
		improvement = body.Score - prev.Score
	case !errors.Is(err, repo.ErrNotFound):
		s.fail(c, http.StatusInternalServerError, err)
		return
	}

	r := repo.Result{
		ID:               uuid.NewString(),
		UserID:           body.UserID,
		Subject:          body.Subject,
		Questions:        body.Questions,
		Score:            body.Score,
		TimeTaken:        body.TimeTaken,
		TopicPerformance: TopicPerformance(body.Questions),
		Improvement:      improvement,
		CreatedAt:        s.now().UTC(),
	}
	if err := s.repo.SaveResult(ctx, r); err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}

	s.publish(c, event.ResultSaved, event.ResultSavedPayload{
		ResultID:    r.ID,
		UserID:      r.UserID,
		Subject:     r.Subject,
		Score:       r.Score,
		Improvement: r.Improvement,
	})
	c.JSON(http.StatusOK, gin.H{"id": r.ID})
}

func (s *Server) listResults(c *gin.Context) {
	limit := defaultResultsLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.fail(c, http.StatusBadRequest, fmt.Errorf("invalid limit %q", v))
			return
		}
		limit = n
	}
	results, err := s.repo.Results(c.Request.Context(), c.Param("userId"), limit)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	if results == nil {
		results = []repo.Result{}
	}
	c.JSON(http.StatusOK, results)
}

type progressBody struct {
	Completed bool `json:"completed"`
}

func (s *Server) updateProgress(c *gin.Context) {
	var body progressBody
	if err := c.ShouldBindJSON(&body); err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	ctx := c.Request.Context()
	userID, topicID := c.Param("userId"), c.Param("topicId")

	topic, err := s.repo.Topic(ctx, topicID)
	if errors.Is(err, repo.ErrNotFound) {
		s.fail(c, http.StatusNotFound, fmt.Errorf("unknown topic %q", topicID))
		return
	}
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}

	var completed int
	if body.Completed {
		completed, err = s.repo.IncrementProgress(ctx, userID, topicID, topic.TotalQuestions)
		if err != nil {
			s.fail(c, http.StatusInternalServerError, err)
			return
		}
		s.publish(c, event.ProgressUpdated, event.ProgressUpdatedPayload{
			UserID: userID, TopicID: topicID, Completed: completed,
		})
	} else {
		done, err := s.repo.Progress(ctx, userID)
		if err != nil {
			s.fail(c, http.StatusInternalServerError, err)
			return
		}
		completed = done[topicID]
	}
	c.JSON(http.StatusOK, gin.H{"id": topicID, "completedQuestions": completed})
}

// publish sends an event. Publishing failures never fail the request.
func (s *Server) publish(c *gin.Context, key string, payload any) {
	if err := s.events.Publish(c.Request.Context(), key, payload); err != nil {
		s.logger.Warn("publish event failed", "routing_key", key, "error", err)
	}
}
