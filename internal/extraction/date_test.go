package extraction

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("PurchaseDate", func() {
	var (
		lines []string
		now   time.Time
		date  string
	)

	BeforeEach(func() {
		now = time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC)
	})

	JustBeforeEach(func() {
		date = PurchaseDate(lines, now)
	})

	DescribeTable("recognized dates",
		func(input []string, expected string) {
			Expect(PurchaseDate(input, now)).To(Equal(expected))
		},
		Entry("month/day/year", []string{"Date: 03/04/2024"}, "2024-03-04T00:00:00"),
		Entry("month-day-year", []string{"03-04-2024 14:22"}, "2024-03-04T00:00:00"),
		Entry("two digit year", []string{"12/25/23"}, "2023-12-25T00:00:00"),
		Entry("ISO", []string{"2024-05-06 12:30"}, "2024-05-06T00:00:00"),
		Entry("short month name", []string{"Jan 5, 2024"}, "2024-01-05T00:00:00"),
		Entry("long month name without comma", []string{"january 15 2024"}, "2024-01-15T00:00:00"),
		Entry("date split across lines", []string{"Mar", "9, 2024"}, "2024-03-09T00:00:00"),
	)

	When("a slash date and an ISO date are both present", func() {
		BeforeEach(func() {
			lines = []string{"2024-05-06", "03/04/2024"}
		})

		It("prefers the month-first form", func() {
			Expect(date).To(Equal("2024-03-04T00:00:00"))
		})
	})

	When("a month name date appears before an ISO date", func() {
		BeforeEach(func() {
			lines = []string{"Jan 5, 2024", "2024-02-03"}
		})

		It("prefers the ISO form", func() {
			Expect(date).To(Equal("2024-02-03T00:00:00"))
		})
	})

	When("the date token cannot be parsed", func() {
		BeforeEach(func() {
			lines = []string{"13/45/2024"}
		})

		It("returns the raw token", func() {
			Expect(date).To(Equal("13/45/2024"))
		})
	})

	When("the month name is not a standard abbreviation", func() {
		BeforeEach(func() {
			lines = []string{"Sept 5, 2024"}
		})

		It("returns the raw token", func() {
			Expect(date).To(Equal("Sept 5, 2024"))
		})
	})

	When("there is no date", func() {
		BeforeEach(func() {
			lines = []string{"Milk $3.50"}
		})

		It("returns the current time", func() {
			Expect(date).To(Equal("2024-06-01T10:30:00"))
		})
	})

	When("there are no lines", func() {
		BeforeEach(func() {
			lines = nil
		})

		It("returns the current time", func() {
			Expect(date).To(Equal("2024-06-01T10:30:00"))
		})
	})
})
