// The markup subpackage tokenizes caption markup.
//
// Caption text is literal text with `<command:args>` islands. Command
// names are case insensitive and end at ':', '>' or whitespace; the
// arguments, if any, end at '>'. Anything that can't be parsed as a
// command (a '<' followed by whitespace, an unterminated island, an
// empty name) is kept as literal text. Well formed but unknown commands
// are returned as commands too, and consumers simply ignore them.
package markup
