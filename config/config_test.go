package config_test

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/google/go-cmp/cmp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/armsim/config"
	"github.com/sarchlab/armsim/emu"
	"github.com/sarchlab/armsim/insts"
)

var _ = Describe("Config", func() {
	var tempDir string

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "config-test")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		_ = os.RemoveAll(tempDir)
	})

	write := func(name, content string) string {
		path := filepath.Join(tempDir, name)
		Expect(os.WriteFile(path, []byte(content), 0644)).To(Succeed())
		return path
	}

	It("should have a valid default", func() {
		c := config.Default()
		Expect(c.Validate()).To(Succeed())
		Expect(c.Cache.Enabled).To(BeFalse())

		enc, err := c.Emulator.Encoding()
		Expect(err).NotTo(HaveOccurred())
		Expect(enc).To(Equal(insts.OffsetImmediateWhenSet))
	})

	It("should load YAML over the defaults", func() {
		path := write("run.yaml", `
emulator:
  max_instructions: 1000
  offset_encoding: conventional
  strict_write_back: true
timing:
  load_latency: 5
cache:
  enabled: true
  size: 512
  miss_latency: 20
log:
  verbosity: 1
`)

		loaded, err := config.Load(path)
		Expect(err).NotTo(HaveOccurred())

		want := config.Default()
		want.Emulator.MaxInstructions = 1000
		want.Emulator.OffsetEncoding = config.OffsetConventional
		want.Emulator.StrictWriteBack = true
		want.Timing.LoadLatency = 5
		want.Cache.Enabled = true
		want.Cache.Size = 512
		want.Cache.MissLatency = 20
		want.Log.Verbosity = 1

		Expect(cmp.Diff(want, loaded)).To(BeEmpty())
	})

	It("should load JSON over the defaults", func() {
		path := write("run.json", `{
  "emulator": {"offset_encoding": "conventional"},
  "cache": {"enabled": true, "associativity": 2}
}`)

		loaded, err := config.Load(path)
		Expect(err).NotTo(HaveOccurred())

		want := config.Default()
		want.Emulator.OffsetEncoding = config.OffsetConventional
		want.Cache.Enabled = true
		want.Cache.Associativity = 2

		Expect(cmp.Diff(want, loaded)).To(BeEmpty())
	})

	DescribeTable("should round trip through Save",
		func(name string) {
			original := config.Default()
			original.Emulator.MaxInstructions = 42
			original.Timing.BranchLatency = 4
			original.Cache.Enabled = true

			path := filepath.Join(tempDir, name)
			Expect(original.Save(path)).To(Succeed())

			loaded, err := config.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(cmp.Diff(original, loaded)).To(BeEmpty())
		},
		Entry("JSON", "saved.json"),
		Entry("YAML", "saved.yml"),
	)

	DescribeTable("should reject invalid settings",
		func(content string) {
			_, err := config.Load(write("bad.yaml", content))
			Expect(errors.Is(err, config.ErrInvalidConfig)).To(BeTrue())
		},
		Entry("unknown encoding", "emulator:\n  offset_encoding: sideways\n"),
		Entry("zero latency", "timing:\n  branch_latency: 0\n"),
		Entry("bad cache geometry", "cache:\n  enabled: true\n  size: 1000\n"),
		Entry("negative verbosity", "log:\n  verbosity: -1\n"),
	)

	It("should ignore the geometry of a disabled cache", func() {
		_, err := config.Load(write("off.yaml", "cache:\n  size: 1000\n"))
		Expect(err).NotTo(HaveOccurred())
	})

	It("should report parse errors", func() {
		_, err := config.Load(write("broken.json", "{"))
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, config.ErrInvalidConfig)).To(BeFalse())
	})

	It("should report a missing file", func() {
		_, err := config.Load(filepath.Join(tempDir, "missing.yaml"))
		Expect(err).To(HaveOccurred())
	})

	It("should build emulator options", func() {
		c := config.Default()
		c.Emulator.MaxInstructions = 2

		opts, err := c.Emulator.Options()
		Expect(err).NotTo(HaveOccurred())

		e := emu.NewEmulator(opts...)
		Expect(e.LoadProgram([]byte{
			0x00, 0x00, 0xA0, 0xE1, // MOV R0, R0
			0x00, 0x00, 0xA0, 0xE1,
			0x00, 0x00, 0xA0, 0xE1,
		})).To(Succeed())

		err = e.Run()
		Expect(errors.Is(err, emu.ErrInstructionLimit)).To(BeTrue())
		Expect(e.InstructionCount()).To(Equal(uint64(2)))
	})

	It("should refuse options for an unknown offset encoding", func() {
		c := config.Default()
		c.Emulator.OffsetEncoding = "sideways"

		opts, err := c.Emulator.Options()
		Expect(err).To(MatchError(config.ErrInvalidConfig))
		Expect(opts).To(BeNil())
	})
})
