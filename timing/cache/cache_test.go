package cache_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/armsim/timing/cache"
)

var _ = Describe("Cache", func() {
	var c *cache.Cache

	BeforeEach(func() {
		// 1KB, 4-way, 64B lines: 4 sets, set stride 256 bytes
		config := cache.Config{
			Size:          1024,
			Associativity: 4,
			BlockSize:     64,
			HitLatency:    1,
			MissLatency:   10,
		}
		c = cache.New(config)
	})

	Describe("Read operations", func() {
		It("should miss on cold cache", func() {
			result := c.Read(0x100)
			Expect(result.Hit).To(BeFalse())
			Expect(result.Latency).To(Equal(uint64(10)))

			stats := c.Stats()
			Expect(stats.Reads).To(Equal(uint64(1)))
			Expect(stats.Misses).To(Equal(uint64(1)))
			Expect(stats.Hits).To(Equal(uint64(0)))
		})

		It("should hit on cached data", func() {
			c.Read(0x100)

			result := c.Read(0x100)
			Expect(result.Hit).To(BeTrue())
			Expect(result.Latency).To(Equal(uint64(1)))

			stats := c.Stats()
			Expect(stats.Reads).To(Equal(uint64(2)))
			Expect(stats.Misses).To(Equal(uint64(1)))
			Expect(stats.Hits).To(Equal(uint64(1)))
			Expect(stats.HitRate()).To(BeNumerically("~", 0.5))
		})

		It("should hit on different addresses in same cache line", func() {
			c.Read(0x100)

			Expect(c.Read(0x13C).Hit).To(BeTrue())
			Expect(c.Read(0x140).Hit).To(BeFalse())
		})
	})

	Describe("Write operations", func() {
		It("should write-allocate on miss", func() {
			result := c.Write(0x200)
			Expect(result.Hit).To(BeFalse())
			Expect(result.Latency).To(Equal(uint64(10)))
			Expect(c.Contains(0x200)).To(BeTrue())

			Expect(c.Read(0x204).Hit).To(BeTrue())
		})

		It("should hit on cached data", func() {
			c.Write(0x200)

			result := c.Write(0x200)
			Expect(result.Hit).To(BeTrue())
			Expect(result.Latency).To(Equal(uint64(1)))
			Expect(c.Stats().Writes).To(Equal(uint64(2)))
		})
	})

	Describe("Eviction", func() {
		It("should evict when a set is full", func() {
			// Set 0 addresses: 0x000, 0x100, 0x200, 0x300, 0x400
			c.Read(0x000)
			c.Read(0x100)
			c.Read(0x200)
			c.Read(0x300)

			Expect(c.Read(0x000).Hit).To(BeTrue())
			Expect(c.Read(0x100).Hit).To(BeTrue())
			Expect(c.Read(0x200).Hit).To(BeTrue())
			Expect(c.Read(0x300).Hit).To(BeTrue())

			result := c.Read(0x400)
			Expect(result.Hit).To(BeFalse())
			Expect(result.Evicted).To(BeTrue())
			Expect(result.EvictedAddr).To(Equal(uint32(0x000)))
			Expect(result.Writeback).To(BeFalse())

			Expect(c.Stats().Evictions).To(Equal(uint64(1)))
			Expect(c.Contains(0x000)).To(BeFalse())
		})

		It("should count a writeback for dirty evicted blocks", func() {
			c.Write(0x000)
			c.Read(0x100)
			c.Read(0x200)
			c.Read(0x300)

			result := c.Read(0x400)
			Expect(result.Evicted).To(BeTrue())
			Expect(result.Writeback).To(BeTrue())
			Expect(c.Stats().Writebacks).To(Equal(uint64(1)))
		})

		It("should keep recently used lines", func() {
			c.Read(0x000)
			c.Read(0x100)
			c.Read(0x200)
			c.Read(0x300)
			c.Read(0x000)

			result := c.Read(0x400)
			Expect(result.EvictedAddr).To(Equal(uint32(0x100)))
			Expect(c.Contains(0x000)).To(BeTrue())
		})
	})

	Describe("Flush and Reset", func() {
		It("should write back all dirty blocks", func() {
			c.Write(0x000)
			c.Write(0x040)
			c.Read(0x080)

			c.Flush()

			Expect(c.Stats().Writebacks).To(Equal(uint64(2)))
			Expect(c.Contains(0x000)).To(BeFalse())
			Expect(c.Contains(0x080)).To(BeFalse())
		})

		It("should clear lines and statistics on reset", func() {
			c.Read(0x000)
			c.Reset()

			Expect(c.Stats()).To(Equal(cache.Statistics{}))
			Expect(c.Read(0x000).Hit).To(BeFalse())
		})
	})

	Describe("Configuration", func() {
		It("should have a valid default", func() {
			config := cache.DefaultConfig()
			Expect(config.Validate()).To(Succeed())
			Expect(config.Size).To(Equal(1024))
			Expect(config.Associativity).To(Equal(4))
			Expect(config.BlockSize).To(Equal(16))
		})

		It("should reject a partial set", func() {
			config := cache.DefaultConfig()
			config.Size = 1000
			Expect(config.Validate()).To(HaveOccurred())
		})

		It("should reject a block size that is not a power of two", func() {
			config := cache.DefaultConfig()
			config.BlockSize = 24
			config.Size = 24 * 4 * 4
			Expect(config.Validate()).To(HaveOccurred())
		})

		It("should reject zero geometry", func() {
			config := cache.DefaultConfig()
			config.Associativity = 0
			Expect(config.Validate()).To(HaveOccurred())
		})
	})
})
