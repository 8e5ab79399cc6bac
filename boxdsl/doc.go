// Package boxdsl implements the tokenizer, parser and validator for the
// boxes diagram language.
//
// A diagram is a list of boxes followed by a list of arrows:
//
//	# comments start with '#' at line start or after whitespace
//	server {
//	    label: "API"
//	    direction: "horizontal"
//	    anchors: { top: [0.5, 0.0], bottom: [0.5, 1.0] }
//	    group {
//	        direction: "vertical"
//	        db { label: "Postgres" }
//	        cache { label: "Redis" }
//	    }
//	}
//	client { label: "Browser" }
//
//	client --> server#top
//	server.db --> server.cache
//
// The package is structured in three layers:
//
//   - Lexer: converts raw bytes into tokens. Newlines are tokens because
//     they separate statements. This is the only stage that fails fast.
//   - Parser: recursive descent with error recovery. It collects every
//     diagnostic and returns the partial document alongside them.
//   - Validator: referential and range checks over a Document, which may
//     come from the parser or be built directly in code.
//
// Usage:
//
//	doc, diags, err := boxdsl.ParseSource(src)
//	if err != nil {
//	    log.Fatal(err) // invalid character or unterminated string
//	}
//	diags = append(diags, boxdsl.Validate(doc)...)
package boxdsl
