package seqbank

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/seqbank/lib/db"
	"github.com/ValentinKolb/seqbank/lib/filter"
	"github.com/ValentinKolb/seqbank/lib/keys"
	"github.com/ValentinKolb/seqbank/lib/remote"
	"github.com/ValentinKolb/seqbank/lib/seqio"
	"github.com/ValentinKolb/seqbank/lib/store"
	"github.com/klauspost/pgzip"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sixRecords = "testdata/six.fasta"

// fakeDownloader serves fixed contents and counts the downloads per URL.
type fakeDownloader struct {
	mu      sync.Mutex
	content map[string][]byte
	calls   map[string]int

	// onDownload runs before every download if set
	onDownload func(url, dst string)
}

func newFakeDownloader() *fakeDownloader {
	return &fakeDownloader{content: map[string][]byte{}, calls: map[string]int{}}
}

func (f *fakeDownloader) Download(ctx context.Context, url, dst string) error {
	if f.onDownload != nil {
		f.onDownload(url, dst)
	}
	f.mu.Lock()
	f.calls[url]++
	data, ok := f.content[url]
	f.mu.Unlock()
	if !ok {
		return fmt.Errorf("GET %s: 404 Not Found", url)
	}
	return os.WriteFile(dst, data, 0o644)
}

func (f *fakeDownloader) called() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var urls []string
	for u := range f.calls {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}

func (f *fakeDownloader) count(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

func newMemoryBank(t *testing.T, dl *fakeDownloader) *SeqBank {
	t.Helper()
	opts := &Options{Memory: true}
	if dl != nil {
		opts.Downloader = dl
	}
	sb, err := Open("memory", db.ReadWrite, opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sb.Close() })
	return sb
}

// --------------------------------------------------------------------------
// Single entries
// --------------------------------------------------------------------------

func TestNumeric(t *testing.T) {
	sb := newMemoryBank(t, nil)
	require.NoError(t, sb.Add("test", RawString("ATCG")))

	numeric, err := sb.Numeric("test")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 4, 2, 3}, numeric)

	s, err := sb.String("test")
	require.NoError(t, err)
	assert.Equal(t, "ATCG", s)
}

func TestSequenceInputs(t *testing.T) {
	sb := newMemoryBank(t, nil)

	require.NoError(t, sb.Add("string", RawString("acgt-n")))
	require.NoError(t, sb.Add("bytes", RawBytes("ACGTN")))
	require.NoError(t, sb.Add("record", Record(seqio.Record{ID: "ignored", Seq: []byte("AC GT N")})))
	require.NoError(t, sb.Add("encoded", Encoded{1, 2, 3, 4, 0}))

	for _, acc := range []string{"string", "bytes", "record", "encoded"} {
		s, err := sb.String(acc)
		require.NoError(t, err, acc)
		assert.Equal(t, "ACGTN", s, acc)
	}

	rec, err := sb.Record("record")
	require.NoError(t, err)
	assert.Equal(t, "record", rec.ID)
	assert.Equal(t, []byte("ACGTN"), rec.Seq)
}

func TestHasDelete(t *testing.T) {
	sb := newMemoryBank(t, nil)
	require.NoError(t, sb.Add("a", RawString("ACGT")))

	assert.True(t, sb.Has("a"))
	assert.False(t, sb.Has("b"))
	assert.False(t, sb.Has(""))

	require.NoError(t, sb.Delete("a"))
	require.NoError(t, sb.Delete("a"), "deleting a missing accession")
	assert.False(t, sb.Has("a"))

	_, err := sb.Numeric("a")
	require.Error(t, err)
	assert.True(t, store.IsCode(err, store.RetCReadFailed))
	assert.Contains(t, err.Error(), "a")
}

func TestInvalidAccessions(t *testing.T) {
	sb := newMemoryBank(t, nil)

	err := sb.Add(keys.URLPrefix+"x", RawString("ACGT"))
	assert.ErrorIs(t, err, keys.ErrReserved)

	err = sb.Add("größe", RawString("ACGT"))
	assert.ErrorIs(t, err, keys.ErrNotASCII)

	err = sb.Add("", RawString("ACGT"))
	assert.ErrorIs(t, err, keys.ErrEmpty)
}

func TestMissing(t *testing.T) {
	sb := newMemoryBank(t, nil)
	require.NoError(t, sb.Add("b", RawString("A")))

	missing := sb.Missing([]string{"c", "b", "a", "c"})
	assert.Equal(t, []string{"c", "a"}, missing)
	assert.Empty(t, sb.Missing([]string{"b"}))
}

// --------------------------------------------------------------------------
// Whole bank
// --------------------------------------------------------------------------

func TestBookkeepingIsHidden(t *testing.T) {
	sb := newMemoryBank(t, nil)
	require.NoError(t, sb.Add("b", RawString("A")))
	require.NoError(t, sb.Add("a", RawString("C")))
	require.NoError(t, sb.SaveSeenURL("https://example.org/x.fa"))

	accessions, err := sb.Accessions()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, accessions)

	n, err := sb.Len()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var all []string
	require.NoError(t, sb.Keys(func(key string) error {
		all = append(all, key)
		return nil
	}))
	assert.Equal(t, []string{keys.URLPrefix + "https://example.org/x.fa", "a", "b"}, all)
}

func TestSaveSeenURL(t *testing.T) {
	defer func(orig func() time.Time) { now = orig }(now)
	now = func() time.Time { return time.Date(2024, 3, 5, 7, 8, 9, 0, time.Local) }

	sb := newMemoryBank(t, nil)
	url := "https://example.org/x.fa"
	assert.False(t, sb.SeenURL(url))
	require.NoError(t, sb.SaveSeenURL(url))
	assert.True(t, sb.SeenURL(url))

	key, err := keys.URL(url)
	require.NoError(t, err)
	value, err := sb.Store().Get(key)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-05 07:08:09", string(value))
}

func TestCopy(t *testing.T) {
	src := newMemoryBank(t, nil)
	dst := newMemoryBank(t, nil)
	require.NoError(t, src.Add("a", RawString("ACGT")))
	require.NoError(t, src.SaveSeenURL("u"))

	require.NoError(t, src.Copy(dst))
	s, err := dst.String("a")
	require.NoError(t, err)
	assert.Equal(t, "ACGT", s)
	assert.True(t, dst.SeenURL("u"))

	ro, err := Open("ro", db.ReadOnly, &Options{Memory: true})
	require.NoError(t, err)
	defer ro.Close()
	assert.Error(t, src.Copy(ro))
}

func TestPebbleBank(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank")

	_, err := Open(path, db.ReadOnly, nil)
	require.Error(t, err)
	assert.True(t, store.IsCode(err, store.RetCNotFound))

	sb, err := Open(path, db.ReadWrite, nil)
	require.NoError(t, err)
	_, err = sb.AddFile(context.Background(), sixRecords, FileOptions{})
	require.NoError(t, err)
	require.NoError(t, sb.Close())
	require.NoError(t, sb.Close(), "closing twice")

	ro, err := Open(path, db.ReadOnly, nil)
	require.NoError(t, err)
	defer ro.Close()

	n, err := ro.Len()
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	s, err := ro.String("seqB")
	require.NoError(t, err)
	assert.Equal(t, "ACGTT", s)

	err = ro.Add("x", RawString("A"))
	assert.True(t, store.IsCode(err, store.RetCReadOnly))
}

// --------------------------------------------------------------------------
// Files
// --------------------------------------------------------------------------

func TestAddFile(t *testing.T) {
	sb := newMemoryBank(t, nil)
	res, err := sb.AddFile(context.Background(), sixRecords, FileOptions{})
	require.NoError(t, err)
	assert.Equal(t, FileResult{Read: 6, Added: 6}, res)

	s, err := sb.String("seqA")
	require.NoError(t, err)
	assert.Equal(t, "ACGTNNACGT", s)

	var buf bytes.Buffer
	sb.Metrics().WritePrometheus(&buf)
	assert.Contains(t, buf.String(), `seqbank_records_total{result="added"} 6`)
	assert.Equal(t, uint64(6), sb.Metrics().RecordsAdded())
}

func TestAddFileFilter(t *testing.T) {
	sb := newMemoryBank(t, nil)
	res, err := sb.AddFile(context.Background(), sixRecords, FileOptions{Filter: filter.List{"seqA", "seqD", "nope"}})
	require.NoError(t, err)
	assert.Equal(t, FileResult{Read: 6, Added: 2, Skipped: 4}, res)

	accessions, err := sb.Accessions()
	require.NoError(t, err)
	assert.Equal(t, []string{"seqA", "seqD"}, accessions)

	// an empty list means no filter
	res, err = sb.AddFile(context.Background(), sixRecords, FileOptions{Filter: filter.List{}})
	require.NoError(t, err)
	assert.Equal(t, 6, res.Added)
}

func TestAddFileErrors(t *testing.T) {
	sb := newMemoryBank(t, nil)

	_, err := sb.AddFile(context.Background(), "testdata/six.unknown", FileOptions{})
	assert.ErrorIs(t, err, seqio.ErrUnknownFormat)

	_, err = sb.AddFile(context.Background(), "testdata/does-not-exist.fasta", FileOptions{})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := sb.AddFile(ctx, sixRecords, FileOptions{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, res.Added)
}

func TestAddSequenceFromFile(t *testing.T) {
	sb := newMemoryBank(t, nil)

	err := sb.AddSequenceFromFile(context.Background(), "target", "testdata/five.fasta", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAmbiguousTarget))
	assert.Contains(t, err.Error(), "5 records")
	assert.False(t, sb.Has("target"))
	assert.False(t, sb.Has("r1"))

	require.NoError(t, sb.AddSequenceFromFile(context.Background(), "target", "testdata/one.fasta", seqio.FormatFASTA))
	s, err := sb.String("target")
	require.NoError(t, err)
	assert.Equal(t, "AACCGGTT", s)
	assert.False(t, sb.Has("only"))
}

func TestAddFiles(t *testing.T) {
	sb := newMemoryBank(t, nil)
	dir := t.TempDir()

	var files []string
	for i := 0; i < 4; i++ {
		p := filepath.Join(dir, fmt.Sprintf("f%d.fa", i))
		require.NoError(t, os.WriteFile(p, []byte(fmt.Sprintf(">acc%d\nACGT\n>keep%d\nGG\n", i, i)), 0o644))
		files = append(files, p)
	}
	files = append(files, filepath.Join(dir, "missing.fa"))

	report, err := sb.AddFiles(context.Background(), files, BatchOptions{Workers: 3, Filter: filter.List{"keep0", "keep1", "keep2", "keep3"}})
	require.NoError(t, err)
	assert.Equal(t, 5, report.Scheduled)
	assert.Equal(t, 4, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, files[4], report.Failures[0].Item)
	assert.NotEmpty(t, report.RunID)

	accessions, err := sb.Accessions()
	require.NoError(t, err)
	assert.Equal(t, []string{"keep0", "keep1", "keep2", "keep3"}, accessions)

	report, err = sb.AddFiles(context.Background(), files, BatchOptions{Max: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Scheduled)
	assert.Equal(t, 2, report.Succeeded)
}

// --------------------------------------------------------------------------
// URLs
// --------------------------------------------------------------------------

func TestAddURLIdempotent(t *testing.T) {
	dl := newFakeDownloader()
	url := "https://example.org/data/six.fasta"
	data, err := os.ReadFile(sixRecords)
	require.NoError(t, err)
	dl.content[url] = data

	sb := newMemoryBank(t, dl)
	res := sb.AddURL(context.Background(), url, URLOptions{})
	require.NoError(t, res.Err)
	assert.Equal(t, URLAdded, res.Status)
	assert.Equal(t, 6, res.Records.Added)
	assert.True(t, sb.SeenURL(url))

	// the second run does not download anything and writes nothing
	require.NoError(t, sb.Delete("seqA"))
	res = sb.AddURL(context.Background(), url, URLOptions{})
	assert.Equal(t, URLAlreadyProcessed, res.Status)
	assert.Equal(t, 1, dl.count(url))
	assert.False(t, sb.Has("seqA"))

	res = sb.AddURL(context.Background(), url, URLOptions{Force: true})
	assert.Equal(t, URLAdded, res.Status)
	assert.Equal(t, 2, dl.count(url))
	assert.True(t, sb.Has("seqA"))
}

func TestAddURLFailure(t *testing.T) {
	dl := newFakeDownloader()
	sb := newMemoryBank(t, dl)
	url := "https://example.org/missing.fa"

	res := sb.AddURL(context.Background(), url, URLOptions{TmpDir: t.TempDir()})
	assert.Equal(t, URLFailed, res.Status)
	assert.Error(t, res.Err)
	assert.False(t, sb.SeenURL(url))

	// a failed URL is tried again
	dl.content[url] = []byte(">x\nACGT\n")
	res = sb.AddURL(context.Background(), url, URLOptions{})
	assert.Equal(t, URLAdded, res.Status)
	assert.Equal(t, 2, dl.count(url))
}

func TestAddURLUnparsable(t *testing.T) {
	dl := newFakeDownloader()
	sb := newMemoryBank(t, dl)
	url := "https://example.org/listing.html"
	dl.content[url] = []byte("<html></html>")

	res := sb.AddURL(context.Background(), url, URLOptions{})
	assert.Equal(t, URLFailed, res.Status)
	assert.ErrorIs(t, res.Err, seqio.ErrUnknownFormat)
	assert.False(t, sb.SeenURL(url))
}

func TestAddURLsMax(t *testing.T) {
	dl := newFakeDownloader()
	var urls []string
	for i := 0; i < 10; i++ {
		u := fmt.Sprintf("https://example.org/f%d.fa", i)
		dl.content[u] = []byte(fmt.Sprintf(">acc%d\nACGT\n", i))
		urls = append(urls, u)
	}

	sb := newMemoryBank(t, dl)
	require.NoError(t, sb.SaveSeenURL(urls[1]))

	report := sb.AddURLs(context.Background(), urls, BatchOptions{Max: 5, Workers: 4})
	assert.Equal(t, 5, report.Scheduled)
	assert.Equal(t, 5, report.Succeeded)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, 1, report.Skipped)

	assert.Equal(t, []string{urls[0], urls[2], urls[3], urls[4], urls[5]}, dl.called())
	for _, u := range urls[6:] {
		assert.False(t, sb.SeenURL(u), u)
	}

	// the next run picks up where this one stopped
	report = sb.AddURLs(context.Background(), urls, BatchOptions{Max: 5})
	assert.Equal(t, 4, report.Scheduled)
	assert.Equal(t, 6, report.Skipped)
	n, err := sb.Len()
	require.NoError(t, err)
	assert.Equal(t, 9, n)
}

func TestAddURLsFailureIsolated(t *testing.T) {
	dl := newFakeDownloader()
	urls := []string{"https://example.org/a.fa", "https://example.org/broken.fa", "https://example.org/c.fa"}
	dl.content[urls[0]] = []byte(">a\nA\n")
	dl.content[urls[2]] = []byte(">c\nC\n")

	sb := newMemoryBank(t, dl)
	report := sb.AddURLs(context.Background(), urls, BatchOptions{Workers: -1})
	assert.Equal(t, 3, report.Scheduled)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, urls[1], report.Failures[0].Item)
	assert.True(t, sb.Has("a"))
	assert.True(t, sb.Has("c"))
}

func TestAddURLsCancelled(t *testing.T) {
	dl := newFakeDownloader()
	sb := newMemoryBank(t, dl)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report := sb.AddURLs(ctx, []string{"https://example.org/a.fa", "https://example.org/b.fa"}, BatchOptions{})
	assert.Equal(t, 2, report.Scheduled)
	assert.Equal(t, 2, report.Cancelled)
	assert.Empty(t, dl.called())
}

func TestAddURLsCancelledWhileRunning(t *testing.T) {
	urls := []string{"https://example.org/a.fa", "https://example.org/b.fa", "https://example.org/c.fa"}
	dl := newFakeDownloader()
	for _, u := range urls {
		dl.content[u] = []byte(">seqA\nACGT\n")
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	dl.onDownload = func(string, string) { cancel() }
	sb := newMemoryBank(t, dl)

	report := sb.AddURLs(ctx, urls, BatchOptions{Workers: 1})
	assert.Equal(t, 3, report.Scheduled)
	assert.Equal(t, 2, report.Cancelled)
	assert.Equal(t, 1, report.Succeeded+report.Failed)
	assert.Equal(t, report.Scheduled, report.Succeeded+report.Failed+report.Cancelled)
	assert.Equal(t, 1, dl.count(urls[0]))
	assert.Equal(t, 0, dl.count(urls[1]))
	assert.Equal(t, 0, dl.count(urls[2]))
}

func TestAddArchive(t *testing.T) {
	var gz bytes.Buffer
	zw := pgzip.NewWriter(&gz)
	_, err := zw.Write([]byte(">DF000000001\nacgtRR\n>DF000000002\nGGCC\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	dl := newFakeDownloader()
	url := "https://example.org/families.fa.gz"
	dl.content[url] = gz.Bytes()
	tmp := t.TempDir()
	var downloadedTo string
	dl.onDownload = func(_, dst string) { downloadedTo = dst }

	sb := newMemoryBank(t, dl)
	opts := ArchiveOptions{TmpDir: tmp}
	res := sb.AddArchive(context.Background(), url, remote.SeqFileOpener(seqio.FormatFASTA), opts)
	require.NoError(t, res.Err)
	assert.Equal(t, 2, res.Records.Added)
	assert.True(t, strings.HasPrefix(downloadedTo, tmp+string(filepath.Separator)), downloadedTo)
	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, entries, "download directory is removed")

	s, err := sb.String("DF000000001")
	require.NoError(t, err)
	assert.Equal(t, "ACGT", s)

	res = sb.AddArchive(context.Background(), url, remote.SeqFileOpener(seqio.FormatFASTA), opts)
	assert.Equal(t, URLAlreadyProcessed, res.Status)
	assert.Equal(t, 1, dl.count(url))

	opts.Force = true
	res = sb.AddArchive(context.Background(), url, remote.SeqFileOpener(seqio.FormatFASTA), opts)
	require.NoError(t, res.Err)
	assert.Equal(t, URLAdded, res.Status)
	assert.Equal(t, 2, dl.count(url))
}

// --------------------------------------------------------------------------
// Export and reports
// --------------------------------------------------------------------------

func TestExportAll(t *testing.T) {
	sb := newMemoryBank(t, nil)
	_, err := sb.AddFile(context.Background(), sixRecords, FileOptions{})
	require.NoError(t, err)
	require.NoError(t, sb.SaveSeenURL("https://example.org/x.fa"))

	out := filepath.Join(t.TempDir(), "out.fasta")
	n, err := sb.Export(context.Background(), out, ExportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, 6, strings.Count(string(data), ">"))

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "export_all.fasta", data)
}

func TestExportRoundTrip(t *testing.T) {
	sb := newMemoryBank(t, nil)
	_, err := sb.AddFile(context.Background(), sixRecords, FileOptions{})
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "out.fq.gz")
	n, err := sb.Export(context.Background(), out, ExportOptions{Workers: 2})
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	other := newMemoryBank(t, nil)
	res, err := other.AddFile(context.Background(), out, FileOptions{})
	require.NoError(t, err)
	assert.Equal(t, 6, res.Added)

	for _, acc := range []string{"seqA", "seqB", "seqC", "seqD", "seqE", "seqF"} {
		want, err := sb.Numeric(acc)
		require.NoError(t, err)
		got, err := other.Numeric(acc)
		require.NoError(t, err)
		assert.Equal(t, want, got, acc)
	}
}

func TestExportSelection(t *testing.T) {
	sb := newMemoryBank(t, nil)
	_, err := sb.AddFile(context.Background(), sixRecords, FileOptions{})
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := sb.ExportTo(context.Background(), &buf, seqio.FormatTab, filter.List{"seqE", "seqB"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "seqE\tGGGG\nseqB\tACGTT\n", buf.String())

	accFile := filepath.Join(t.TempDir(), "accessions.txt")
	require.NoError(t, os.WriteFile(accFile, []byte("seqD\nseqC\n\n"), 0o644))
	buf.Reset()
	_, err = sb.ExportTo(context.Background(), &buf, seqio.FormatTab, filter.File(accFile))
	require.NoError(t, err)
	assert.Equal(t, "seqD\tTTTTAAAA\nseqC\tACGTACGTAC\n", buf.String())

	_, err = sb.ExportTo(context.Background(), &buf, seqio.FormatTab, filter.List{"nope"})
	assert.True(t, store.IsCode(err, store.RetCReadFailed))

	_, err = sb.Export(context.Background(), filepath.Join(t.TempDir(), "out.gb"), ExportOptions{})
	assert.ErrorIs(t, err, seqio.ErrUnsupportedWrite)
}

func TestLengths(t *testing.T) {
	sb := newMemoryBank(t, nil)
	_, err := sb.AddFile(context.Background(), sixRecords, FileOptions{})
	require.NoError(t, err)

	lengths, err := sb.Lengths()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{
		"seqA": 10, "seqB": 5, "seqC": 10, "seqD": 8, "seqE": 4, "seqF": 70,
	}, lengths)

	report, err := sb.LengthReport(4)
	require.NoError(t, err)
	assert.Equal(t, int64(6), report.Count)
	assert.Equal(t, int64(4), report.Min)
	assert.Equal(t, int64(70), report.Max)
	assert.InDelta(t, 107.0/6.0, report.Mean, 0.001)

	var total int64
	for _, b := range report.Buckets {
		total += b.Count
	}
	assert.Equal(t, int64(6), total)

	var buf bytes.Buffer
	require.NoError(t, report.WriteHistogram(&buf, 20))
	assert.Equal(t, len(report.Buckets), strings.Count(buf.String(), "\n"))

	empty := newMemoryBank(t, nil)
	report, err = empty.LengthReport(10)
	require.NoError(t, err)
	assert.Zero(t, report.Count)
}
