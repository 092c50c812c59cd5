package loader_test

import (
	"encoding/binary"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/armsim/emu"
	"github.com/sarchlab/armsim/loader"
)

var _ = Describe("Loader", func() {
	var tempDir string

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "armsim-loader-test")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		_ = os.RemoveAll(tempDir)
	})

	Describe("raw images", func() {
		It("should load the file bytes unchanged", func() {
			path := filepath.Join(tempDir, "prog.bin")
			code := []byte{0x01, 0x00, 0xA0, 0xE3} // MOV R0, #1
			Expect(os.WriteFile(path, code, 0o644)).To(Succeed())

			prog, err := loader.Load(path)

			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Format).To(Equal(loader.FormatRaw))
			Expect(prog.Image).To(Equal(code))
			Expect(prog.Segments).To(BeEmpty())
		})

		It("should reject images larger than memory", func() {
			path := filepath.Join(tempDir, "big.bin")
			Expect(os.WriteFile(path, make([]byte, emu.MemorySize+4), 0o644)).To(Succeed())

			_, err := loader.Load(path)

			Expect(err).To(MatchError(emu.ErrProgramTooLarge))
		})

		It("should reject images that end mid-word", func() {
			path := filepath.Join(tempDir, "odd.bin")
			Expect(os.WriteFile(path, []byte{0x01, 0x00, 0xA0, 0xE3, 0x00, 0x00}, 0o644)).To(Succeed())

			_, err := loader.Load(path)

			Expect(err).To(MatchError(loader.ErrUnalignedImage))
		})

		It("should fail for a missing file", func() {
			_, err := loader.Load(filepath.Join(tempDir, "missing.bin"))

			Expect(err).To(MatchError(os.ErrNotExist))
		})
	})

	Describe("ELF images", func() {
		code := []byte{
			0x05, 0x00, 0xA0, 0xE3, // MOV R0, #5
			0x01, 0x10, 0xA0, 0xE3, // MOV R1, #1
		}

		It("should flatten PT_LOAD segments at their addresses", func() {
			path := filepath.Join(tempDir, "prog.elf")
			createMinimalARMELF(path, 0x10, 0, 40, code)

			prog, err := loader.Load(path)

			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Format).To(Equal(loader.FormatELF))
			Expect(prog.Image).To(HaveLen(0x18))
			Expect(prog.Image[0x10:]).To(Equal(code))
			Expect(prog.Segments).To(HaveLen(1))
			Expect(prog.Segments[0].VirtAddr).To(Equal(uint32(0x10)))
			Expect(prog.Segments[0].Flags & loader.SegmentFlagExecute).ToNot(BeZero())
		})

		It("should pad a segment that ends mid-word", func() {
			path := filepath.Join(tempDir, "short.elf")
			createMinimalARMELF(path, 0, 0, 40, code[:6])

			prog, err := loader.Load(path)

			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Image).To(HaveLen(8))
			Expect(prog.Image[:6]).To(Equal(code[:6]))
		})

		It("should reject non-ARM machines", func() {
			path := filepath.Join(tempDir, "x86.elf")
			createMinimalARMELF(path, 0, 0, 3, code)

			_, err := loader.Load(path)

			Expect(err).To(MatchError(loader.ErrUnsupportedELF))
		})

		It("should reject a nonzero entry point", func() {
			path := filepath.Join(tempDir, "entry.elf")
			createMinimalARMELF(path, 0, 4, 40, code)

			_, err := loader.Load(path)

			Expect(err).To(MatchError(loader.ErrUnsupportedELF))
		})

		It("should reject segments beyond memory", func() {
			path := filepath.Join(tempDir, "high.elf")
			createMinimalARMELF(path, emu.MemorySize-4, 0, 40, code)

			_, err := loader.Load(path)

			Expect(err).To(MatchError(emu.ErrProgramTooLarge))
		})
	})
})

// createMinimalARMELF writes an ELF32 executable with one PT_LOAD segment.
func createMinimalARMELF(path string, loadAddr, entryPoint uint32, machine uint16, code []byte) {
	// ELF Header (52 bytes)
	elfHeader := make([]byte, 52)

	copy(elfHeader[0:4], []byte{0x7f, 'E', 'L', 'F'})
	elfHeader[4] = 1                                   // 32-bit
	elfHeader[5] = 1                                   // little endian
	elfHeader[6] = 1                                   // version
	binary.LittleEndian.PutUint16(elfHeader[16:18], 2) // executable
	binary.LittleEndian.PutUint16(elfHeader[18:20], machine)
	binary.LittleEndian.PutUint32(elfHeader[20:24], 1)
	binary.LittleEndian.PutUint32(elfHeader[24:28], entryPoint)
	binary.LittleEndian.PutUint32(elfHeader[28:32], 52) // program headers follow
	binary.LittleEndian.PutUint16(elfHeader[40:42], 52)
	binary.LittleEndian.PutUint16(elfHeader[42:44], 32)
	binary.LittleEndian.PutUint16(elfHeader[44:46], 1)
	binary.LittleEndian.PutUint16(elfHeader[46:48], 40)

	// Program Header (32 bytes) - PT_LOAD
	progHeader := make([]byte, 32)
	binary.LittleEndian.PutUint32(progHeader[0:4], 1)
	binary.LittleEndian.PutUint32(progHeader[4:8], 84)
	binary.LittleEndian.PutUint32(progHeader[8:12], loadAddr)
	binary.LittleEndian.PutUint32(progHeader[12:16], loadAddr)
	binary.LittleEndian.PutUint32(progHeader[16:20], uint32(len(code)))
	binary.LittleEndian.PutUint32(progHeader[20:24], uint32(len(code)))
	binary.LittleEndian.PutUint32(progHeader[24:28], 0x5) // PF_X | PF_R
	binary.LittleEndian.PutUint32(progHeader[28:32], 4)

	file, _ := os.Create(path)
	defer func() { _ = file.Close() }()

	_, _ = file.Write(elfHeader)
	_, _ = file.Write(progHeader)
	_, _ = file.Write(code)
}
