package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

func writeFile(path, contents string) error {
	return os.WriteFile(path, []byte(contents), 0o644)
}

func TestConfig(t *testing.T) {
	gomega.RegisterFailHandler(Fail)
	RunSpecs(t, "Config Suite")
}

var _ = Describe("Default", func() {
	It("returns the stdio-era adapter and a bound websocket fallback", func() {
		cfg := Default()
		gomega.Expect(cfg.Adapter).To(gomega.Equal("dap"))
		gomega.Expect(cfg.WebSocket.Addr).To(gomega.Equal(":8080"))
		gomega.Expect(cfg.WebSocket.MaxSessions).To(gomega.Equal(100))
		gomega.Expect(cfg.WebSocket.IdleTimeout).To(gomega.Equal(1 * time.Hour))
		gomega.Expect(cfg.Logging.Level).To(gomega.Equal("info"))
	})
})

var _ = Describe("Load", func() {
	It("returns Default() unchanged when path is empty", func() {
		cfg, err := Load("")
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(cfg).To(gomega.Equal(Default()))
	})

	It("returns Default() unchanged when the file does not exist", func() {
		cfg, err := Load(filepath.Join(GinkgoT().TempDir(), "missing.yaml"))
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(cfg).To(gomega.Equal(Default()))
	})

	It("merges a yaml file over the defaults", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "aliceserver.yaml")
		gomega.Expect(writeFile(path, `
adapter: mi4
websocket:
  addr: ":9999"
logging:
  level: debug
  file: /tmp/aliceserver.log
`)).To(gomega.Succeed())

		cfg, err := Load(path)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(cfg.Adapter).To(gomega.Equal("mi4"))
		gomega.Expect(cfg.WebSocket.Addr).To(gomega.Equal(":9999"))
		gomega.Expect(cfg.WebSocket.MaxSessions).To(gomega.Equal(100)) // untouched by the file, kept from Default()
		gomega.Expect(cfg.Logging.Level).To(gomega.Equal("debug"))
		gomega.Expect(cfg.Logging.File).To(gomega.Equal("/tmp/aliceserver.log"))
	})

	It("merges a json file over the defaults", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "aliceserver.json")
		gomega.Expect(writeFile(path, `{"adapter": "mi2", "websocket": {"max_sessions": 5}}`)).To(gomega.Succeed())

		cfg, err := Load(path)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(cfg.Adapter).To(gomega.Equal("mi2"))
		gomega.Expect(cfg.WebSocket.MaxSessions).To(gomega.Equal(5))
		gomega.Expect(cfg.WebSocket.Addr).To(gomega.Equal(":8080")) // untouched by the file, kept from Default()
	})

	It("rejects an unrecognized extension", func() {
		_, err := Load("aliceserver.ini")
		gomega.Expect(err).To(gomega.MatchError(gomega.ContainSubstring("unrecognized extension")))
	})
})
