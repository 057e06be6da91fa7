// Package slideview opens presentation files (.pptx, .ppt) as paginated,
// zoomable page views.
//
// # Quick Start
//
// Create a pipeline and a viewer, open a file, and close when done:
//
//	pipe := slideview.NewPipeline()
//	viewer := slideview.NewViewer(pipe, panel)
//	defer viewer.Close()
//
//	if err := viewer.Open(ctx, "deck.pptx"); err != nil {
//	    log.Fatal(err)
//	}
//	viewer.Next()
//	viewer.ZoomIn()
//
// The panel is provided by the host. It implements Panel and hands out
// Surfaces for the main page and one thumbnail per page.
//
// # Conversion Pipeline
//
// Pipeline.Convert turns a presentation into a PDF:
//
//  1. The file content is hashed (MD5) to build the cache key
//     {baseName}_{fingerprint}.pdf.
//  2. A cached entry is returned as is, with FromCache set.
//  3. Otherwise LibreOffice is located by probing platform candidates with
//     --version and run headless, first printing to file, then through the
//     Impress PDF export filter.
//  4. The output is checked to be a readable PDF and renamed into the cache.
//
// Convert never panics and never returns a Go error; failures are described
// by ConversionResult.Error and ConversionResult.Kind.
//
// # Cache Maintenance
//
// Entries live under os.TempDir()/slideview-cache unless WithCacheDir says
// otherwise. SweepOlderThan removes entries past an age, ClearAll removes
// everything, and Stats reports count and size. Closing a viewer never
// deletes its cached PDF.
//
// # Viewer
//
// A Viewer moves through Empty, Loading, Ready and Failed. Navigation and zoom
// are accepted in Ready only:
//
//	viewer.GoTo(3)        // 0-based; out-of-range is ignored
//	viewer.HandleKey("+") // up/down, +/=, -/_
//	snap := viewer.Snapshot()
//	fmt.Println(snap.Label()) // "4 / 12"
//
// Pages render at quality × zoom (default 2 × 1.0); zoom moves in 0.25 steps
// within [0.5, 3.0]. Thumbnails are built once per open at 120 pixels wide.
package slideview
