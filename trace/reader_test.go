package trace_test

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/bpsim/trace"
)

var sample = []trace.Record{
	{PC: 0x400100, Taken: true},
	{PC: 0x400104, Taken: false},
	{PC: 0x400100, Taken: true},
	{PC: 0x4001f0, Taken: false},
}

var _ = Describe("Reader", func() {
	It("should skip blank lines and comments", func() {
		input := "# header\n\n0x400100 1\n400104 0\n  \n0x400100 1\n0x4001f0 0\n"

		records, err := trace.ReadAll(strings.NewReader(input))

		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(Equal(sample))
	})

	It("should report the line of a malformed record", func() {
		input := "0x10 1\n# fine\n0x14 x\n"
		reader := trace.NewReader(strings.NewReader(input))

		_, err := reader.Next()
		Expect(err).NotTo(HaveOccurred())

		_, err = reader.Next()
		Expect(err).To(MatchError(trace.ErrMalformedRecord))
		Expect(err.Error()).To(HavePrefix("line 3:"))
		Expect(reader.Line()).To(Equal(3))
	})

	It("should return io.EOF at the end of the trace", func() {
		reader := trace.NewReader(strings.NewReader("0x10 1"))

		_, err := reader.Next()
		Expect(err).NotTo(HaveOccurred())

		_, err = reader.Next()
		Expect(errors.Is(err, io.EOF)).To(BeTrue())
	})

	It("should return an empty trace for empty input", func() {
		records, err := trace.ReadAll(strings.NewReader(""))

		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(BeEmpty())
	})
})

var _ = Describe("Writer", func() {
	It("should write records readable by the reader", func() {
		var buf bytes.Buffer
		w := trace.NewWriter(&buf)

		Expect(w.WriteAll(sample)).To(Succeed())
		Expect(w.Close()).To(Succeed())
		Expect(w.Count()).To(Equal(len(sample)))
		Expect(buf.String()).To(HavePrefix("0x400100 1\n0x400104 0\n"))

		records, err := trace.ReadAll(&buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(Equal(sample))
	})

	It("should refuse to write bzip2", func() {
		_, err := trace.NewCompressedWriter(io.Discard, trace.CompressionBzip2)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Compressed files", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	DescribeTable("should read back what was written",
		func(name string) {
			path := filepath.Join(dir, name)

			w, err := trace.Create(path, trace.CompressionAuto)
			Expect(err).NotTo(HaveOccurred())
			Expect(w.WriteAll(sample)).To(Succeed())
			Expect(w.Close()).To(Succeed())

			r, err := trace.Open(path, trace.CompressionAuto)
			Expect(err).NotTo(HaveOccurred())
			defer func() { Expect(r.Close()).To(Succeed()) }()

			var got []trace.Record
			for {
				rec, err := r.Next()
				if errors.Is(err, io.EOF) {
					break
				}
				Expect(err).NotTo(HaveOccurred())
				got = append(got, rec)
			}
			Expect(got).To(Equal(sample))
		},
		Entry("plain", "branches.trace"),
		Entry("gzip", "branches.trace.gz"),
		Entry("zstd", "branches.trace.zst"),
	)

	It("should honor an explicit compression over the extension", func() {
		path := filepath.Join(dir, "branches.dat")

		w, err := trace.Create(path, trace.CompressionGzip)
		Expect(err).NotTo(HaveOccurred())
		Expect(w.WriteAll(sample)).To(Succeed())
		Expect(w.Close()).To(Succeed())

		r, err := trace.Open(path, trace.CompressionGzip)
		Expect(err).NotTo(HaveOccurred())
		defer func() { _ = r.Close() }()

		rec, err := r.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(rec).To(Equal(sample[0]))
	})

	It("should fail on a gzip trace that is not gzip", func() {
		path := filepath.Join(dir, "broken.gz")
		Expect(os.WriteFile(path, []byte("0x10 1\n"), 0o644)).To(Succeed())

		_, err := trace.Open(path, trace.CompressionAuto)
		Expect(err).To(HaveOccurred())
	})

	It("should fail on a missing file", func() {
		_, err := trace.Open(filepath.Join(dir, "missing.trace"), trace.CompressionAuto)
		Expect(err).To(MatchError(os.ErrNotExist))
	})
})
