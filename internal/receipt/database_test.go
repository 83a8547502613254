package receipt

import (
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"go.etcd.io/bbolt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("BoltDB", func() {
	var (
		tmpDir string
		dbPath string
		db     *BoltDB
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		dbPath = filepath.Join(tmpDir, "test.db")
		var err error
		db, err = NewBoltDB(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	newTestReceipt := func(id string) *Receipt {
		return &Receipt{
			ID:            id,
			Store:         "Corner Market",
			DatePurchased: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
			Subtotal:      decimal.RequireFromString("9.99"),
			Tax:           decimal.RequireFromString("0.80"),
			Total:         decimal.RequireFromString("10.79"),
			Items: []Item{
				{ID: "item-1", Number: 1, Name: "Milk", Quantity: 2, Price: decimal.RequireFromString("3.50")},
			},
			Filename:    "test.jpg",
			ContentType: "image/jpeg",
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
		}
	}

	Describe("CreateReceipt", func() {
		var (
			first  *Receipt
			second *Receipt
			err    error
		)

		BeforeEach(func() {
			first = newTestReceipt("id1")
			second = newTestReceipt("id2")
			second.Name = "Groceries"
		})

		JustBeforeEach(func() {
			err = db.CreateReceipt(first)
			Expect(err).NotTo(HaveOccurred())
			err = db.CreateReceipt(second)
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("numbers receipts sequentially", func() {
			Expect(first.Number).To(Equal(uint64(1)))
			Expect(second.Number).To(Equal(uint64(2)))
		})

		It("names an unnamed receipt after its number", func() {
			Expect(first.Name).To(Equal("Unnamed Receipt (1)"))
		})

		It("keeps an existing name", func() {
			Expect(second.Name).To(Equal("Groceries"))
		})

		It("should save the receipt to the database", func() {
			saved, getErr := db.GetReceipt("id1")
			Expect(getErr).NotTo(HaveOccurred())
			Expect(saved.Number).To(Equal(uint64(1)))
		})

		When("the database is reopened", func() {
			It("continues the numbering", func() {
				Expect(db.Close()).To(Succeed())
				var openErr error
				db, openErr = NewBoltDB(dbPath)
				Expect(openErr).NotTo(HaveOccurred())

				third := newTestReceipt("id3")
				Expect(db.CreateReceipt(third)).To(Succeed())
				Expect(third.Number).To(Equal(uint64(3)))
			})
		})
	})

	Describe("GetReceipt", func() {
		var (
			receiptID string
			receipt   *Receipt
			err       error
		)

		JustBeforeEach(func() {
			receipt, err = db.GetReceipt(receiptID)
		})

		When("receipt exists", func() {
			BeforeEach(func() {
				receiptID = "test-id"
				Expect(seedReceipt(db, newTestReceipt("test-id"))).NotTo(HaveOccurred())
			})

			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return the correct receipt ID", func() {
				Expect(receipt.ID).To(Equal("test-id"))
			})

			It("should keep the amounts exact", func() {
				Expect(receipt.Total.StringFixed(2)).To(Equal("10.79"))
				Expect(receipt.Items[0].Price.StringFixed(2)).To(Equal("3.50"))
			})

			It("should keep the items", func() {
				Expect(receipt.Items).To(HaveLen(1))
				Expect(receipt.Items[0].Name).To(Equal("Milk"))
				Expect(receipt.Items[0].Quantity).To(Equal(2))
			})
		})

		When("receipt does not exist", func() {
			BeforeEach(func() {
				receiptID = "nonexistent"
			})

			It("returns ErrNotFound", func() {
				Expect(err).To(MatchError(ErrNotFound))
				Expect(err.Error()).To(Equal("receipt not found: nonexistent"))
			})
		})
	})

	Describe("UpdateReceipt", func() {
		BeforeEach(func() {
			Expect(seedReceipt(db, newTestReceipt("test-id"))).To(Succeed())
		})

		It("saves the changes made by fn", func() {
			updated, err := db.UpdateReceipt("test-id", func(r *Receipt) error {
				r.Name = "Weekly shop"
				return nil
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Name).To(Equal("Weekly shop"))

			saved, err := db.GetReceipt("test-id")
			Expect(err).NotTo(HaveOccurred())
			Expect(saved.Name).To(Equal("Weekly shop"))
		})

		It("saves nothing when fn fails", func() {
			_, err := db.UpdateReceipt("test-id", func(r *Receipt) error {
				r.Name = "Weekly shop"
				return ErrItemNotFound
			})
			Expect(err).To(MatchError(ErrItemNotFound))

			saved, err := db.GetReceipt("test-id")
			Expect(err).NotTo(HaveOccurred())
			Expect(saved.Name).To(BeEmpty())
		})

		It("returns ErrNotFound for an unknown receipt", func() {
			_, err := db.UpdateReceipt("nonexistent", func(r *Receipt) error { return nil })
			Expect(err).To(MatchError(ErrNotFound))
		})
	})

	Describe("ListReceipts", func() {
		var (
			receipts []*Receipt
			err      error
		)

		JustBeforeEach(func() {
			receipts, err = db.ListReceipts()
		})

		When("receipts exist", func() {
			BeforeEach(func() {
				Expect(seedReceipt(db, newTestReceipt("id1"))).NotTo(HaveOccurred())
				Expect(seedReceipt(db, newTestReceipt("id2"))).NotTo(HaveOccurred())
			})

			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return all receipts", func() {
				Expect(receipts).To(HaveLen(2))
			})
		})

		When("no receipts exist", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return an empty list", func() {
				Expect(receipts).To(BeEmpty())
			})
		})
	})

	Describe("DeleteReceipt", func() {
		var (
			receiptID string
			err       error
		)

		JustBeforeEach(func() {
			err = db.DeleteReceipt(receiptID)
		})

		When("receipt exists", func() {
			BeforeEach(func() {
				receiptID = "test-id"
				Expect(seedReceipt(db, newTestReceipt("test-id"))).NotTo(HaveOccurred())
			})

			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should remove the receipt from the database", func() {
				_, getErr := db.GetReceipt("test-id")
				Expect(getErr).To(MatchError(ErrNotFound))
			})
		})

		When("receipt does not exist", func() {
			BeforeEach(func() {
				receiptID = "nonexistent"
			})

			It("returns ErrNotFound", func() {
				Expect(err).To(MatchError(ErrNotFound))
			})
		})
	})

	Describe("Close", func() {
		It("should not return an error", func() {
			err := db.Close()
			Expect(err).NotTo(HaveOccurred())
			db = nil
		})
	})
})

// seedReceipt stores a receipt as is, skipping the numbering CreateReceipt does
func seedReceipt(db *BoltDB, receipt *Receipt) error {
	return db.db.Update(func(tx *bbolt.Tx) error {
		return putReceipt(tx.Bucket([]byte(bucketName)), receipt)
	})
}
