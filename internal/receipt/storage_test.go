package receipt

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LocalStorage", func() {
	var (
		baseDir string
		storage *LocalStorage
	)

	BeforeEach(func() {
		baseDir = filepath.Join(GinkgoT().TempDir(), "receipts")
		var err error
		storage, err = NewLocalStorage(baseDir)
		Expect(err).NotTo(HaveOccurred())
	})

	It("creates the base directory", func() {
		Expect(baseDir).To(BeADirectory())
	})

	Describe("Save", func() {
		var (
			filename string
			name     string
			err      error
		)

		BeforeEach(func() {
			filename = "id-1_receipt.jpg"
		})

		JustBeforeEach(func() {
			name, err = storage.Save(filename, []byte("image bytes"))
		})

		It("writes the file and returns its name", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(name).To(Equal("id-1_receipt.jpg"))
			Expect(filepath.Join(baseDir, name)).To(BeAnExistingFile())
		})

		When("the filename contains directories", func() {
			BeforeEach(func() {
				filename = "../../etc/receipt.jpg"
			})

			It("keeps only the base name", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(name).To(Equal("receipt.jpg"))
				Expect(filepath.Join(baseDir, "receipt.jpg")).To(BeAnExistingFile())
			})
		})

		When("the directory has been removed", func() {
			BeforeEach(func() {
				Expect(os.RemoveAll(baseDir)).To(Succeed())
			})

			It("returns an error", func() {
				Expect(err).To(MatchError(ContainSubstring("writing file")))
			})
		})
	})

	Describe("Get", func() {
		It("returns what was saved", func() {
			name, err := storage.Save("scan.png", []byte("png bytes"))
			Expect(err).NotTo(HaveOccurred())

			data, err := storage.Get(name)
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal([]byte("png bytes")))
		})

		It("cannot reach outside the base directory", func() {
			outside := filepath.Join(filepath.Dir(baseDir), "secret.txt")
			Expect(os.WriteFile(outside, []byte("secret"), 0644)).To(Succeed())

			_, err := storage.Get("../secret.txt")
			Expect(err).To(MatchError(ContainSubstring("reading file")))
		})

		It("returns an error for a missing file", func() {
			_, err := storage.Get("missing.jpg")
			Expect(err).To(MatchError(ContainSubstring("reading file")))
		})
	})

	Describe("Delete", func() {
		It("removes the file", func() {
			name, err := storage.Save("scan.pdf", []byte("pdf bytes"))
			Expect(err).NotTo(HaveOccurred())

			Expect(storage.Delete(name)).To(Succeed())
			Expect(filepath.Join(baseDir, name)).NotTo(BeAnExistingFile())
		})

		It("returns an error for a missing file", func() {
			Expect(storage.Delete("missing.jpg")).To(MatchError(ContainSubstring("deleting file")))
		})
	})
})
