package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"sahayak/internal/cache"
	"sahayak/internal/classifier"
	"sahayak/internal/config"
	"sahayak/internal/service"
)

// scenario is one classroom situation worth keeping warm in the cache.
// Subject "General" and grade "any" mean the classifier decides on its own.
type scenario struct {
	Subject string
	Grade   string
	Problem string
}

// Most common teaching scenarios for Indian government schools. Warming these
// keeps playbooks available in areas with intermittent internet.
var commonScenarios = []scenario{
	// Mathematics
	{"Mathematics", "1", "Students can't recognize numbers 1-10"},
	{"Mathematics", "2", "Students struggling with addition of single digits"},
	{"Mathematics", "3", "Students not understanding multiplication tables"},
	{"Mathematics", "4", "Students confused about fractions"},
	{"Mathematics", "5", "Students can't understand decimals"},
	{"Mathematics", "6", "Students struggling with algebra basics"},
	{"Mathematics", "7", "Students confused about integers"},
	{"Mathematics", "8", "Students don't understand geometry theorems"},

	// Science
	{"Science", "3", "Students don't understand living vs non-living things"},
	{"Science", "4", "Students confused about states of matter"},
	{"Science", "5", "Students can't understand the solar system"},
	{"Science", "6", "Students struggling with photosynthesis"},
	{"Science", "7", "Students don't understand chemical reactions"},
	{"Science", "8", "Students confused about human body systems"},

	// English
	{"English", "1", "Students can't recognize alphabets"},
	{"English", "2", "Students struggling with reading simple words"},
	{"English", "3", "Students can't form simple sentences"},
	{"English", "4", "Students confused about tenses"},
	{"English", "5", "Students struggling with comprehension passages"},
	{"English", "6", "Students can't write paragraphs properly"},

	// Hindi
	{"Hindi", "1", "Students can't recognize Hindi varnamala"},
	{"Hindi", "2", "Students struggling with matra"},
	{"Hindi", "3", "Students confused about sandhi"},
	{"Hindi", "4", "Students can't write Hindi sentences"},
	{"Hindi", "5", "Students struggling with Hindi grammar"},

	// Social Studies
	{"Social Studies", "4", "Students confused about maps and directions"},
	{"Social Studies", "5", "Students don't understand Indian history"},
	{"Social Studies", "6", "Students confused about Indian geography"},
	{"Social Studies", "7", "Students struggling with civics concepts"},
	{"Social Studies", "8", "Students don't understand economics basics"},

	// EVS
	{"EVS", "3", "Students don't understand plants and animals"},
	{"EVS", "4", "Students confused about weather and seasons"},
	{"EVS", "5", "Students struggling with pollution and environment"},

	// Classroom management
	{"General", "any", "Students are not paying attention in class"},
	{"General", "any", "Students are too noisy and disruptive"},
	{"General", "any", "Some students are very shy and don't participate"},
	{"General", "any", "Students are tired and sleepy after lunch"},
	{"General", "any", "Students have mixed learning levels in class"},
	{"General", "any", "Students forget what was taught yesterday"},
	{"General", "any", "Students are not doing homework"},
	{"General", "any", "Students are copying from each other"},
	{"General", "any", "Parents are not supportive of education"},
	{"General", "any", "Students have language barrier issues"},
	{"General", "any", "Too many students in one classroom"},
	{"General", "any", "No teaching materials available"},
	{"General", "any", "Students are afraid to ask questions"},
	{"General", "any", "Students learn at very different speeds"},
	{"General", "any", "First generation learners struggling"},
}

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	cfg := config.Load()
	aiConfig := config.DefaultAIConfig()
	if !aiConfig.IsEnabled() {
		log.Fatal("GEMINI_API_KEY not set; pre-caching needs real generation")
	}
	if cfg.RedisAddr == "" {
		log.Fatal("pre-caching requires Redis (unset REDIS_ENABLED=false)")
	}

	ctx := context.Background()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := rdb.Ping(pingCtx).Result(); err != nil {
		log.Fatalf("pre-caching requires Redis at %s: %v", cfg.RedisAddr, err)
	}

	playbookCache := cache.NewPlaybookCache(cache.NewRedisStore(rdb), cfg.CacheTTL, logger)
	engine := classifier.NewEngine()
	generator := service.NewGeminiService(aiConfig, logger)

	fmt.Printf("Pre-caching %d common scenarios (model %s)\n\n", len(commonScenarios), generator.Model())

	var generated, cached, failed int
	for i, sc := range commonScenarios {
		classified := engine.Classify(sc.Problem)
		if sc.Subject != "General" {
			classified.Subject = sc.Subject
		}
		if sc.Grade != "any" {
			classified.Grade = sc.Grade
		}

		kc := cache.KeyContext{
			Subject:  classified.Subject,
			Grade:    classified.Grade,
			Topic:    classified.Topic,
			Language: "English",
		}

		if playbookCache.Lookup(ctx, kc) != nil {
			cached++
			fmt.Printf("[%2d/%d] %-15s grade %-3s already cached\n", i+1, len(commonScenarios), sc.Subject, sc.Grade)
			continue
		}

		pctx := service.PromptContext{
			Subject:      orDefault(classified.Subject, "General"),
			Grade:        orDefault(classified.Grade, "Mixed"),
			Topic:        orDefault(classified.Topic, "General Topic"),
			StudentCount: classified.StudentCount,
			Urgency:      string(classified.Urgency),
			Language:     "English",
		}

		result := generator.GeneratePlaybook(ctx, sc.Problem, pctx)
		if !result.Success {
			failed++
			fmt.Printf("[%2d/%d] %-15s grade %-3s FAILED: %s\n", i+1, len(commonScenarios), sc.Subject, sc.Grade, result.ErrorDetail)
			continue
		}

		playbookCache.Store(ctx, kc, &cache.CachedPlaybook{Text: result.Text, Model: generator.Model()})
		generated++
		fmt.Printf("[%2d/%d] %-15s grade %-3s generated\n", i+1, len(commonScenarios), sc.Subject, sc.Grade)

		// Be gentle with the API between calls
		time.Sleep(500 * time.Millisecond)
	}

	fmt.Println()
	fmt.Println("Pre-caching complete")
	fmt.Printf("  New playbooks generated: %d\n", generated)
	fmt.Printf("  Already cached:          %d\n", cached)
	fmt.Printf("  Failed:                  %d\n", failed)

	if failed > 0 {
		os.Exit(1)
	}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
