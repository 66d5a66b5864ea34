package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/spa-proxy/pkg/logger"
)

var _ = Describe("Logger", func() {
	Describe("New", func() {
		It("should create logger with info level", func() {
			log := logger.New("info", false, "dev")
			Expect(log).NotTo(BeNil())
		})

		It("should default to info for invalid level", func() {
			log := logger.New("invalid", false, "dev")
			Expect(log).NotTo(BeNil())
		})

		It("should create prod logger", func() {
			log := logger.New("info", false, "prod")
			Expect(log).NotTo(BeNil())
		})

		It("should support addSource option", func() {
			log := logger.New("info", true, "dev")
			Expect(log).NotTo(BeNil())
		})

		It("should include environment attribute", func() {
			log := logger.New("info", false, "dev")
			Expect(log).NotTo(BeNil())

			// Logger should have default level behavior
			Expect(log.Enabled(context.Background(), slog.LevelInfo)).To(BeTrue())
			Expect(log.Enabled(context.Background(), slog.LevelDebug)).To(BeFalse())
		})

		It("should respect debug level", func() {
			log := logger.New("debug", false, "dev")

			Expect(log.Enabled(context.Background(), slog.LevelDebug)).To(BeTrue())
			Expect(log.Enabled(context.Background(), slog.LevelInfo)).To(BeTrue())
		})

		It("should respect warn level", func() {
			log := logger.New("warn", false, "dev")

			Expect(log.Enabled(context.Background(), slog.LevelInfo)).To(BeFalse())
			Expect(log.Enabled(context.Background(), slog.LevelWarn)).To(BeTrue())
		})

		It("should respect error level", func() {
			log := logger.New("error", false, "dev")

			Expect(log.Enabled(context.Background(), slog.LevelWarn)).To(BeFalse())
			Expect(log.Enabled(context.Background(), slog.LevelError)).To(BeTrue())
		})

		It("should mirror records to extra writers", func() {
			var buf bytes.Buffer
			log := logger.New("info", false, "dev", &buf)

			log.Info("SPA proxy enabled", slog.String("client_url", "http://localhost:5173"))

			Expect(buf.String()).To(ContainSubstring("SPA proxy enabled"))
			Expect(buf.String()).To(ContainSubstring("environment=dev"))
		})

		It("should write JSON in prod", func() {
			var buf bytes.Buffer
			log := logger.New("info", false, "prod", &buf)

			log.Warn("Forward failed", slog.String("reason", "timed-out"))

			var record map[string]any
			Expect(json.Unmarshal(buf.Bytes(), &record)).To(Succeed())
			Expect(record).To(HaveKeyWithValue("reason", "timed-out"))
			Expect(record).To(HaveKeyWithValue("environment", "prod"))
		})
	})

	Describe("NewFileWriter", func() {
		It("should write records to the log file", func() {
			path := filepath.Join(GinkgoT().TempDir(), "spa-proxy.log")
			file := logger.NewFileWriter(path)
			defer file.Close()

			log := logger.New("info", false, "dev", file)
			log.Info("written to file")

			content, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(content)).To(ContainSubstring("written to file"))
		})
	})
})
