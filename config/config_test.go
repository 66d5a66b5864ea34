package config_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/pflag"

	"github.com/angeloszaimis/spa-proxy/config"
)

var _ = Describe("Config", func() {
	var (
		tempDir string
		origDir string
	)

	writeConfig := func(name, content string) string {
		configPath := filepath.Join(tempDir, name)
		err := os.WriteFile(configPath, []byte(content), 0644)
		Expect(err).NotTo(HaveOccurred())
		return configPath
	}

	BeforeEach(func() {
		var err error
		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		tempDir = GinkgoT().TempDir()
		Expect(os.Chdir(tempDir)).To(Succeed())
	})

	AfterEach(func() {
		Expect(os.Chdir(origDir)).To(Succeed())
		os.Unsetenv("SPA_CLIENT_URL")
		os.Unsetenv("PROXY_TIMEOUT")
	})

	Describe("Load", func() {
		Context("with valid config file", func() {
			BeforeEach(func() {
				writeConfig("config.yaml", `
server:
  address: ":9090"
  environment: "dev"

logging:
  level: "debug"

spa:
  manifest: "ClientApp/spa.proxy.json"

proxy:
  timeout: "30s"

health_check:
  interval: "10s"

metrics:
  path: "/internal/metrics"
  prometheus_path: "/internal/prometheus"
`)
			})

			It("should load configuration successfully", func() {
				cfg, err := config.Load(nil)
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg).NotTo(BeNil())
			})

			It("should parse server and logging settings", func() {
				cfg, _ := config.Load(nil)
				Expect(cfg.Server.Address).To(Equal(":9090"))
				Expect(cfg.Logging.Level).To(Equal("debug"))
			})

			It("should parse SPA and proxy settings", func() {
				cfg, _ := config.Load(nil)
				Expect(cfg.Spa.Manifest).To(Equal("ClientApp/spa.proxy.json"))
				Expect(cfg.ProxyTimeout()).To(Equal(30 * time.Second))
				Expect(cfg.HealthCheckInterval()).To(Equal(10 * time.Second))
				Expect(cfg.Metrics.Path).To(Equal("/internal/metrics"))
			})
		})

		Context("without a config file", func() {
			It("should use defaults", func() {
				cfg, err := config.Load(nil)
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Server.Address).To(Equal(":8080"))
				Expect(cfg.Server.Environment).To(Equal(config.EnvDev))
				Expect(cfg.Spa.Manifest).To(Equal("spa.proxy.json"))
				Expect(cfg.Spa.ClientURL).To(BeEmpty())
				Expect(cfg.ProxyTimeout()).To(Equal(100 * time.Second))
				Expect(cfg.Metrics.Path).To(Equal("/_spa/metrics"))
			})
		})

		Context("with environment variables", func() {
			It("should override the client URL", func() {
				os.Setenv("SPA_CLIENT_URL", "http://localhost:4200")

				cfg, err := config.Load(nil)
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Spa.ClientURL).To(Equal("http://localhost:4200"))
			})

			It("should reject an invalid client URL", func() {
				os.Setenv("SPA_CLIENT_URL", "localhost:4200")

				cfg, err := config.Load(nil)
				Expect(err).To(HaveOccurred())
				Expect(cfg).To(BeNil())
			})

			It("should reject a zero proxy timeout", func() {
				os.Setenv("PROXY_TIMEOUT", "0s")

				_, err := config.Load(nil)
				Expect(err).To(HaveOccurred())
			})
		})

		Context("with flags", func() {
			var flags *pflag.FlagSet

			BeforeEach(func() {
				flags = pflag.NewFlagSet("spa-proxy", pflag.ContinueOnError)
				config.RegisterFlags(flags)
			})

			It("should prefer flags over defaults", func() {
				Expect(flags.Parse([]string{"--address", "127.0.0.1:7000", "--log-level", "warn"})).To(Succeed())

				cfg, err := config.Load(flags)
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Server.Address).To(Equal("127.0.0.1:7000"))
				Expect(cfg.Logging.Level).To(Equal("warn"))
			})

			It("should keep defaults for unset flags", func() {
				Expect(flags.Parse(nil)).To(Succeed())

				cfg, err := config.Load(flags)
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Server.Address).To(Equal(":8080"))
				Expect(cfg.Spa.Manifest).To(Equal("spa.proxy.json"))
			})

			It("should read an explicit config file", func() {
				path := writeConfig("custom.yaml", `
spa:
  manifest: "web/spa.proxy.json"
`)
				Expect(flags.Parse([]string{"--config", path})).To(Succeed())

				cfg, err := config.Load(flags)
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Spa.Manifest).To(Equal("web/spa.proxy.json"))
			})

			It("should fail when the explicit config file is missing", func() {
				Expect(flags.Parse([]string{"--config", filepath.Join(tempDir, "nope.yaml")})).To(Succeed())

				_, err := config.Load(flags)
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("Validate", func() {
		var cfg *config.Config

		BeforeEach(func() {
			cfg = &config.Config{
				Server:  config.ServerConfig{Address: ":8080", Environment: config.EnvDev},
				Logging: config.LoggingConfig{Level: config.LogLevelInfo},
				Spa:     config.SpaConfig{Manifest: "spa.proxy.json"},
				Proxy:   config.ProxyConfig{Timeout: "100s"},
				Metrics: config.MetricsConfig{Path: "/_spa/metrics", PrometheusPath: "/_spa/metrics/prometheus"},
			}
		})

		It("should accept a complete config", func() {
			Expect(cfg.Validate()).To(Succeed())
		})

		It("should allow health checks to be disabled", func() {
			cfg.HealthCheck.Interval = ""
			Expect(cfg.Validate()).To(Succeed())
			Expect(cfg.HealthCheckInterval()).To(BeZero())
		})

		It("should reject an unknown environment", func() {
			cfg.Server.Environment = "qa"
			Expect(cfg.Validate()).NotTo(Succeed())
		})

		It("should reject an invalid address", func() {
			cfg.Server.Address = "invalid:host:port"
			Expect(cfg.Validate()).NotTo(Succeed())
		})

		It("should reject an unparsable timeout", func() {
			cfg.Proxy.Timeout = "soon"
			Expect(cfg.Validate()).NotTo(Succeed())
		})

		It("should reject relative metrics paths", func() {
			cfg.Metrics.Path = "metrics"
			Expect(cfg.Validate()).NotTo(Succeed())
		})
	})
})
