// Package story generates stories from a grammar.
//
// A Generator owns a title, an entry point and the last generated text, and
// holds an explicitly constructed *grammar.Store. Stores are never shared
// implicitly: two generators share rules only if the caller passes both the
// same store.
//
// Typical use:
//
//	store := grammar.New()
//	gen := story.New("myStory", store)
//	_ = gen.AddRule("greeting", "Hello there", "Hi")
//	_ = gen.AddRule("start", "*GREETING*, world.")
//	if err := gen.SetEntryPoint("start"); err != nil { ... }
//	if err := gen.Generate(ctx); err != nil { ... }
//	fmt.Print(gen)
//
// Rules can also be supplied by a Populator, an external rule producer such
// as a grammar file loader.
package story
