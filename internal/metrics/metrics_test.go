package metrics_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/spa-proxy/internal/metrics"
)

const devServer = "http://localhost:5173"

var _ = Describe("Metrics", func() {
	var m *metrics.Metrics

	BeforeEach(func() {
		m = metrics.NewMetrics()
	})

	Describe("IncrementRequests", func() {
		It("should increment request count for a destination", func() {
			m.IncrementRequests(devServer)
			m.IncrementRequests(devServer)

			snap := m.Snapshot()
			Expect(snap.TotalRequests).To(Equal(int64(2)))
			Expect(snap.Destinations[devServer].Requests).To(Equal(int64(2)))
		})

		It("should track multiple destinations separately", func() {
			m.IncrementRequests(devServer)
			m.IncrementRequests("http://localhost:4200")
			m.IncrementRequests(devServer)

			snap := m.Snapshot()
			Expect(snap.TotalRequests).To(Equal(int64(3)))
			Expect(snap.Destinations[devServer].Requests).To(Equal(int64(2)))
			Expect(snap.Destinations["http://localhost:4200"].Requests).To(Equal(int64(1)))
		})
	})

	Describe("RecordFailure", func() {
		It("should count failures by reason", func() {
			m.RecordFailure(devServer, "timed-out")
			m.RecordFailure(devServer, "destination-unreachable")
			m.RecordFailure(devServer, "destination-unreachable")

			snap := m.Snapshot()
			Expect(snap.TotalFailures).To(Equal(int64(3)))
			Expect(snap.Destinations[devServer].Failures).To(HaveKeyWithValue("timed-out", int64(1)))
			Expect(snap.Destinations[devServer].Failures).To(HaveKeyWithValue("destination-unreachable", int64(2)))
		})
	})

	Describe("RecordResponse", func() {
		It("should record response time and status code", func() {
			m.RecordResponse(devServer, 100*time.Millisecond, 200)
			m.RecordResponse(devServer, 200*time.Millisecond, 200)

			dm := m.Snapshot().Destinations[devServer]
			Expect(dm.AvgResponse).To(Equal(150 * time.Millisecond))
			Expect(dm.StatusCodes[200]).To(Equal(int64(2)))
		})

		It("should track different status codes", func() {
			m.RecordResponse(devServer, 100*time.Millisecond, 200)
			m.RecordResponse(devServer, 150*time.Millisecond, 304)
			m.RecordResponse(devServer, 200*time.Millisecond, 404)

			dm := m.Snapshot().Destinations[devServer]
			Expect(dm.StatusCodes[200]).To(Equal(int64(1)))
			Expect(dm.StatusCodes[304]).To(Equal(int64(1)))
			Expect(dm.StatusCodes[404]).To(Equal(int64(1)))
		})

		It("should calculate percentiles correctly", func() {
			for i := 1; i <= 100; i++ {
				m.RecordResponse(devServer, time.Duration(i)*time.Millisecond, 200)
			}

			dm := m.Snapshot().Destinations[devServer]
			Expect(dm.P50Response).To(BeNumerically("~", 50*time.Millisecond, 1*time.Millisecond))
			Expect(dm.P95Response).To(BeNumerically("~", 95*time.Millisecond, 1*time.Millisecond))
			Expect(dm.P99Response).To(BeNumerically("~", 99*time.Millisecond, 1*time.Millisecond))
		})

		It("should limit stored response times to 1000", func() {
			for i := 1; i <= 1500; i++ {
				m.RecordResponse(devServer, time.Duration(i)*time.Millisecond, 200)
			}

			dm := m.Snapshot().Destinations[devServer]
			Expect(dm.AvgResponse).To(BeNumerically(">", 500*time.Millisecond))
		})
	})

	Describe("UpdateHealthStatus", func() {
		It("should track health status changes", func() {
			m.UpdateHealthStatus(devServer, true)
			Expect(m.Snapshot().Destinations[devServer].Healthy).To(BeTrue())

			m.UpdateHealthStatus(devServer, false)
			Expect(m.Snapshot().Destinations[devServer].Healthy).To(BeFalse())
		})
	})

	Describe("Snapshot", func() {
		It("should include uptime", func() {
			time.Sleep(10 * time.Millisecond)
			Expect(m.Snapshot().Uptime).To(BeNumerically(">", 0))
		})

		It("should handle empty metrics", func() {
			snap := m.Snapshot()
			Expect(snap.TotalRequests).To(Equal(int64(0)))
			Expect(snap.Destinations).To(BeEmpty())
		})

		It("should return independent snapshots", func() {
			m.RecordResponse(devServer, time.Millisecond, 200)
			snap1 := m.Snapshot()

			m.RecordResponse(devServer, time.Millisecond, 200)
			snap2 := m.Snapshot()

			Expect(snap1.Destinations[devServer].StatusCodes[200]).To(Equal(int64(1)))
			Expect(snap2.Destinations[devServer].StatusCodes[200]).To(Equal(int64(2)))
		})
	})
})
