package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/openexams/invigil/internal/engine"
	"github.com/openexams/invigil/internal/evaluate"
	"github.com/openexams/invigil/internal/extract"
	"github.com/openexams/invigil/internal/handler"
	appI18n "github.com/openexams/invigil/internal/i18n"
	"github.com/openexams/invigil/internal/oracle"
	"github.com/openexams/invigil/internal/result"
	"github.com/openexams/invigil/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "invigil",
		Short: "Adaptive assessment and exam integrity engine",
	}

	serve := serveCmd()
	root.AddCommand(serve, ingestCmd(), exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP assessment server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "invigil.db", "SQLite database path (empty = in-memory only)")
	f.StringP("lang", "l", "en", "Language for student-facing messages (en, ru)")
	f.String("oracle-url", "", "OpenAI-compatible API base URL (empty disables AI scoring)")
	f.String("oracle-key", "", "API key for the scoring oracle")
	f.String("oracle-model", "llama3.2", "Scoring oracle model name")
	f.String("oracle-variant", string(oracle.VariantStandard), "Oracle grading variant (strict, standard, lenient)")
	f.Duration("oracle-timeout", 20*time.Second, "Timeout for one oracle call")
	f.StringSlice("cors-origins", []string{"*"}, "Allowed CORS origins")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func ingestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Extract study material and derive a question bank",
		RunE:  runIngest,
	}
	f := cmd.Flags()
	f.String("db", "invigil.db", "SQLite database path")
	f.StringSliceP("files", "f", nil, "Paths to source documents (PDF or text, repeatable)")
	f.String("owner", "", "Instructor id owning the document set")
	f.String("seed", "", "Bank generation seed (defaults to the set id)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")

	_ = cmd.MarkFlagRequired("files")

	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export quiz results as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "invigil.db", "SQLite database path")
	f.String("exam-id", "", "Exam identifier for output (required)")
	f.String("subject", "", "Subject name for output (required)")
	f.String("date", "", "Exam date in YYYY-MM-DD format (required)")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("oracle-variant", "", "Oracle grading variant recorded in the export metadata")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")

	_ = cmd.MarkFlagRequired("exam-id")
	_ = cmd.MarkFlagRequired("subject")
	_ = cmd.MarkFlagRequired("date")

	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("INVIGIL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("invigil")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/invigil")
	v.AddConfigPath("/etc/invigil")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}
	msgs := appI18n.Catalog(lang)

	var backend store.Store
	if dbPath := v.GetString("db"); dbPath != "" {
		db, err := store.NewSQLite(dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		backend = db
	}

	lexical := evaluate.NewLexicalScorer(msgs.Evaluate)
	var scorer evaluate.Scorer = lexical
	if oracleURL := v.GetString("oracle-url"); oracleURL != "" {
		variant := oracle.Variant(strings.ToLower(strings.TrimSpace(v.GetString("oracle-variant"))))
		if !oracle.IsValidVariant(string(variant)) {
			slog.Warn("invalid oracle-variant, using standard", "variant", variant)
			variant = oracle.VariantStandard
		}
		client := oracle.New(oracleURL, v.GetString("oracle-key"), v.GetString("oracle-model"), variant)
		if err := client.Ping(context.Background()); err != nil {
			return fmt.Errorf("oracle health check: %w", err)
		}
		slog.Info("oracle endpoint OK", "url", oracleURL, "model", v.GetString("oracle-model"))
		scorer = evaluate.NewOracleScorer(client, lexical, v.GetDuration("oracle-timeout"))
	}

	opts := []engine.Option{
		engine.WithScorer(scorer),
		engine.WithMessages(msgs),
	}
	if backend != nil {
		opts = append(opts, engine.WithStore(backend))
	}
	eng := engine.New(opts...)
	defer eng.Close()

	h := handler.New(eng)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: v.GetStringSlice("cors-origins"),
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Accept", "Content-Type", "Authorization"},
	}))
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"db", v.GetString("db"),
		"lang", lang,
		"oracle_url", v.GetString("oracle-url"),
	)
	return http.ListenAndServe(addr, r)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.NewSQLite(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	var extractor extract.FileExtractor
	var texts []string
	paths := v.GetStringSlice("files")
	for _, path := range paths {
		text, err := extractor.ExtractText(path)
		if err != nil {
			return fmt.Errorf("extract %s: %w", path, err)
		}

		hash := sha256sum([]byte(text))
		storedHash, err := db.GetImportedFileHash(path)
		if err != nil {
			return fmt.Errorf("check import status for %s: %w", path, err)
		}
		if storedHash == hash {
			slog.Info("source file unchanged since last ingest", "path", path)
		}
		if storedHash != "" && storedHash != hash {
			// Banks derived from a set must stay reproducible, so a changed
			// file becomes part of a brand new set rather than mutating one.
			slog.Warn("source file changed since last ingest; a new document set will be created", "path", path)
		}
		texts = append(texts, text)
		if err := db.SetImportedFileHash(path, hash); err != nil {
			return fmt.Errorf("record import for %s: %w", path, err)
		}
	}

	eng := engine.New(engine.WithStore(db))
	defer eng.Close()

	ctx := context.Background()
	set, err := eng.CreateDocumentSet(ctx, v.GetString("owner"), texts)
	if err != nil {
		return fmt.Errorf("create document set: %w", err)
	}
	seed := v.GetString("seed")
	if seed == "" {
		seed = set.ID
	}
	questions, err := eng.CreateQuestionBank(ctx, set.ID, seed)
	if err != nil {
		return fmt.Errorf("derive question bank: %w", err)
	}

	slog.Info("ingest complete", "set_id", set.ID, "files", len(paths), "questions", len(questions))
	fmt.Println(set.ID)
	return nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.NewSQLite(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	eng := engine.New(engine.WithStore(db))
	defer eng.Close()

	summaries, err := eng.Summaries(context.Background())
	if err != nil {
		return fmt.Errorf("export sessions: %w", err)
	}

	export := result.Export{
		ExamID:        v.GetString("exam-id"),
		Subject:       v.GetString("subject"),
		Date:          v.GetString("date"),
		OracleVariant: v.GetString("oracle-variant"),
		NumSessions:   len(summaries),
		Results:       summaries,
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)

	return nil
}

func sha256sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
