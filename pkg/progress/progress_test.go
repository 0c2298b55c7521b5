//spellchecker:words progress
package progress_test

//spellchecker:words strings github callgraphdb progress
import (
	"fmt"
	"io"
	"strings"

	"github.com/FAU-CDI/callgraphdb/pkg/progress"
)

func ExampleReader() {
	source := strings.NewReader("hello world")
	var builder strings.Builder

	reader := &progress.Reader{
		Reader: source,

		Rewritable: progress.Rewritable{
			FlushInterval: 0,
			Writer:        &builder,
		},
	}

	_, _ = reader.Read(make([]byte, 5))
	_, _ = reader.Read(make([]byte, 6))

	// replace all the '\r's with '\n's for testing
	fmt.Println(strings.ReplaceAll(builder.String(), "\r", "\n"))

	// Output: Read 5 B
	// Read 11 B
}

func ExampleReader_total() {
	source := strings.NewReader("hello world")
	var builder strings.Builder

	reader := &progress.Reader{
		Reader: source,
		Total:  source.Size(),

		Rewritable: progress.Rewritable{
			FlushInterval: 0,
			Writer:        &builder,
		},
	}

	_, _ = io.ReadAll(io.LimitReader(reader, 5))
	_, _ = io.ReadAll(reader)

	fmt.Println(strings.ReplaceAll(builder.String(), "\r", "\n"))

	// Output: Read 5 B of 11 B (45%)
	// Read 11 B of 11 B (100%)
	// Read 11 B of 11 B (100%)
}

func ExampleCounter() {
	var builder strings.Builder

	counter := &progress.Counter{
		Rewritable: progress.Rewritable{
			FlushInterval: 0,
			Writer:        &builder,
		},
	}

	counter.Set("nodes", 1, 10)
	counter.Set("nodes", 10, 10)

	fmt.Println(strings.ReplaceAll(builder.String(), "\r", "\n"))

	// Output: nodes:  1/10
	// nodes: 10
}
