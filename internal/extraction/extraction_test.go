package extraction

import (
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Extractor", func() {
	var (
		extractor *Extractor
		ids       *sequentialIDs
		timeSrc   *mockTimeSource
		lines     []string
		result    Result
	)

	BeforeEach(func() {
		ids = &sequentialIDs{}
		timeSrc = &mockTimeSource{now: time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC)}
		extractor = NewExtractorWithDeps(ids, timeSrc)
	})

	JustBeforeEach(func() {
		result = extractor.Extract(lines)
	})

	When("given a complete receipt", func() {
		BeforeEach(func() {
			lines = []string{
				"TRADER JOE'S",
				"123 Main Street",
				"Springfield, IL 62704",
				"(217) 555-0199",
				"03/04/2024 14:22",
				"Milk 2 x $3.50",
				"Bread $2.99",
				"3 x Apples $1.25",
				"Subtotal $13.74",
				"Sales Tax $1.10",
				"Total $14.84",
				"Thank you for shopping",
			}
		})

		It("reads the store name", func() {
			Expect(result.Receipt.StoreName).To(Equal("TRADER JOE'S"))
		})

		It("reads the address", func() {
			Expect(result.Receipt.Address).To(Equal("123 Main Street Springfield, IL 62704"))
		})

		It("reads the purchase date", func() {
			Expect(result.Receipt.PurchaseDate).To(Equal("2024-03-04T00:00:00"))
		})

		It("reads the items in order", func() {
			Expect(result.Receipt.Items).To(HaveLen(3))
			Expect(result.Receipt.Items[0]).To(Equal(LineItem{
				ID:        "item-1",
				Name:      "Milk",
				Quantity:  2,
				UnitPrice: result.Receipt.Items[0].UnitPrice,
			}))
			Expect(result.Receipt.Items[0].UnitPrice.StringFixed(2)).To(Equal("3.50"))
			Expect(result.Receipt.Items[1].Name).To(Equal("Bread"))
			Expect(result.Receipt.Items[2].Name).To(Equal("Apples"))
			Expect(result.Receipt.Items[2].Quantity).To(Equal(3))
		})

		It("reads the totals", func() {
			Expect(result.Receipt.Subtotal.StringFixed(2)).To(Equal("13.74"))
			Expect(result.Receipt.Tax.StringFixed(2)).To(Equal("1.10"))
			Expect(result.Receipt.Total.StringFixed(2)).To(Equal("14.84"))
		})

		It("derives the tax rate from tax and total", func() {
			Expect(result.TaxRate.StringFixed(4)).To(Equal("0.0741"))
		})
	})

	When("given no lines", func() {
		BeforeEach(func() {
			lines = []string{}
		})

		It("fills every field with its default", func() {
			Expect(result.Receipt.StoreName).To(Equal("Unnamed Store"))
			Expect(result.Receipt.Address).To(Equal("Address not found"))
			Expect(result.Receipt.PurchaseDate).To(Equal("2024-06-01T10:30:00"))
			Expect(result.Receipt.Items).To(BeEmpty())
			Expect(result.Receipt.Subtotal.IsZero()).To(BeTrue())
			Expect(result.Receipt.Tax.IsZero()).To(BeTrue())
			Expect(result.Receipt.Total.IsZero()).To(BeTrue())
			Expect(result.TaxRate.IsZero()).To(BeTrue())
		})
	})

	When("run twice on the same lines", func() {
		BeforeEach(func() {
			lines = []string{"Corner Market", "Milk 2 x $3.50", "Bread $2.99", "Total $9.99"}
		})

		It("produces the same receipt apart from item IDs", func() {
			again := extractor.Extract(lines)

			stripIDs := func(r ExtractedReceipt) ExtractedReceipt {
				items := make([]LineItem, len(r.Items))
				for i, item := range r.Items {
					item.ID = ""
					items[i] = item
				}
				r.Items = items
				return r
			}
			Expect(stripIDs(again.Receipt)).To(Equal(stripIDs(result.Receipt)))
			Expect(again.Receipt.Items[0].ID).NotTo(Equal(result.Receipt.Items[0].ID))
		})
	})

	When("called from several goroutines", func() {
		BeforeEach(func() {
			lines = []string{"Corner Market", "04/05/2024", "Milk 2 x $3.50", "Bread $2.99", "Tax $0.50", "Total $10.49"}
		})

		It("gives every caller the same receipt", func() {
			shared := NewExtractorWithDeps(UUIDGenerator{}, timeSrc)

			var wg sync.WaitGroup
			results := make([]Result, 8)
			for i := range results {
				wg.Add(1)
				go func() {
					defer wg.Done()
					results[i] = shared.Extract(lines)
				}()
			}
			wg.Wait()

			for _, r := range results {
				Expect(r.Receipt.StoreName).To(Equal(result.Receipt.StoreName))
				Expect(r.Receipt.PurchaseDate).To(Equal(result.Receipt.PurchaseDate))
				Expect(r.Receipt.Items).To(HaveLen(2))
				Expect(r.Receipt.Total.StringFixed(2)).To(Equal("10.49"))
				Expect(r.TaxRate.Equal(result.TaxRate)).To(BeTrue())
			}
		})
	})
})
