package extraction

import (
	"github.com/shopspring/decimal"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ExtractTotals", func() {
	var (
		lines  []string
		totals Totals
	)

	JustBeforeEach(func() {
		totals = ExtractTotals(lines)
	})

	When("subtotal, tax and total lines are present", func() {
		BeforeEach(func() {
			lines = []string{"Milk $3.50", "Subtotal $10.00", "Tax $0.80", "TOTAL: $10.80"}
		})

		It("reads each amount", func() {
			Expect(totals.Subtotal.StringFixed(2)).To(Equal("10.00"))
			Expect(totals.Tax.StringFixed(2)).To(Equal("0.80"))
			Expect(totals.Total.StringFixed(2)).To(Equal("10.80"))
		})
	})

	When("there are several tax lines", func() {
		BeforeEach(func() {
			lines = []string{"Tax 1.00", "Sales Tax 0.50", "VAT 0.25"}
		})

		It("adds them up", func() {
			Expect(totals.Tax.StringFixed(2)).To(Equal("1.75"))
		})
	})

	When("a line mentions both subtotal and tax", func() {
		BeforeEach(func() {
			lines = []string{"Subtotal 5.00 Tax 1.00"}
		})

		It("counts it only as a subtotal", func() {
			Expect(totals.Subtotal.StringFixed(2)).To(Equal("5.00"))
			Expect(totals.Tax.IsZero()).To(BeTrue())
		})
	})

	When("total is not at the start of the line", func() {
		BeforeEach(func() {
			lines = []string{"Grand Total 5.00"}
		})

		It("is ignored", func() {
			Expect(totals.Total.IsZero()).To(BeTrue())
		})
	})

	When("a keyword line has no amount", func() {
		BeforeEach(func() {
			lines = []string{"Total", "Tax exempt"}
		})

		It("leaves the amounts at zero", func() {
			Expect(totals.Total.IsZero()).To(BeTrue())
			Expect(totals.Tax.IsZero()).To(BeTrue())
		})
	})

	When("there are no lines", func() {
		BeforeEach(func() {
			lines = nil
		})

		It("returns zeros", func() {
			Expect(totals.Subtotal.IsZero()).To(BeTrue())
			Expect(totals.Tax.IsZero()).To(BeTrue())
			Expect(totals.Total.IsZero()).To(BeTrue())
		})
	})

	Describe("TaxRate", func() {
		It("divides tax by total", func() {
			t := Totals{Tax: decimal.RequireFromString("1.00"), Total: decimal.RequireFromString("10.00")}
			Expect(t.TaxRate().StringFixed(2)).To(Equal("0.10"))
		})

		It("is zero when total is zero", func() {
			t := Totals{Tax: decimal.RequireFromString("1.00")}
			Expect(t.TaxRate().IsZero()).To(BeTrue())
		})
	})
})
