// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	MizNotFoundId Id = iota + 1
	MizFormatId
	MizStructureId
	LuaParseId
	CharsetId
	MirrorCorruptionId
	PermissionDeniedId
	ConfigLoadFailedId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n"
		extraMd += "## See also:\n"
		for _, link := range i.docLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
		for _, link := range i.extLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	mizNotFoundIssue = &Issue{
		id: MizNotFoundId,
		mdMsg: `
# Mission file not found!

The .miz archive you asked for does not exist or is a directory.

## Things you can try:
- Check the path for typos; mission files end in ` + "`.miz`" + `
- The mission editor saves to ` + "`Saved Games/DCS/Missions`" + ` by default
- List the files mizkit can see:
~~~
$ ls *.miz
~~~`,
	}

	mizFormatIssue = &Issue{
		id: MizFormatId,
		mdMsg: `
# Not a mission archive!

The file could not be read as a ZIP archive, or it contains member names that
would escape the extraction directory.

## Things you can try:
- Open the mission in the DCS mission editor and save it again
- Make sure the download or copy of the file completed
- Do not pass the extracted mission directory; pass the ` + "`.miz`" + ` file itself`,
		extLinks: []HttpLink{"https://www.digitalcombatsimulator.com/en/support/faq/editor/"},
	}

	mizStructureIssue = &Issue{
		id: MizStructureId,
		mdMsg: `
# Mission archive is incomplete!

Every mission archive must contain these members:

- ` + "`mission`" + `
- ` + "`options`" + `
- ` + "`warehouses`" + `
- ` + "`l10n/DEFAULT/dictionary`" + `
- ` + "`l10n/DEFAULT/mapResource`" + `

## Things you can try:
- Re-save the mission with the DCS mission editor
- Inspect the extracted files in the scratch directory printed above
- Compare with an archive that loads correctly:
~~~
$ unzip -l good.miz
~~~`,
	}

	luaParseIssue = &Issue{
		id: LuaParseId,
		mdMsg: `
# Could not read a Lua member!

A Lua table inside the archive is malformed. The error above names the member,
the line and the column.

## Common causes:
- A hand edit left a string or table unterminated
- A script changed the ` + "`mission = `" + ` line at the top of the file
- A number like ` + "`1.`" + ` or ` + "`1e5`" + ` (exponents need a sign)

## Things you can try:
- Open the scratch directory printed above and look at the reported line
- Check a single archive with:
~~~
$ mizkit check mission.miz
~~~`,
	}

	charsetIssue = &Issue{
		id: CharsetId,
		mdMsg: `
# Text could not be converted!

The Lua members of an archive are stored as ISO-8859-15 text by default.
Characters outside that charset cannot be written back.

## Things you can try:
- Switch to UTF-8 if your missions were saved that way:
~~~
$ mizkit config set charset utf-8
~~~

- Replace the offending characters in the mission editor`,
	}

	mirrorCorruptionIssue = &Issue{
		id: MirrorCorruptionId,
		mdMsg: `
# A mirrored file did not verify!

A file written into the target directory read back with different bytes. The
partial file was removed.

## Things you can try:
- Check free disk space on the target drive
- Run the command again; unchanged files are skipped
- Mirror into a local directory instead of a network share`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

You don't have permission to perform this operation.

## Common causes:
- The target directory is read-only or owned by another user
- DCS or the mission editor still holds the archive open

## Things you can try:
- Close the mission editor and retry
- Check file/directory permissions
- Choose another target with ` + "`--target`",
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The configuration file could not be read or does not match the schema.

## Things you can try:
- Show where the file lives:
~~~
$ mizkit config path
~~~

- Write a fresh default file (the old one is kept if it exists):
~~~
$ mizkit config init
~~~

- Example configuration:
~~~cue
skip_options_file: false
charset: "iso-8859-15"
jobs: 2
~~~`,
	}

	issues = map[Id]*Issue{
		mizNotFoundIssue.Id():      mizNotFoundIssue,
		mizFormatIssue.Id():        mizFormatIssue,
		mizStructureIssue.Id():     mizStructureIssue,
		luaParseIssue.Id():         luaParseIssue,
		charsetIssue.Id():          charsetIssue,
		mirrorCorruptionIssue.Id(): mirrorCorruptionIssue,
		permissionDeniedIssue.Id(): permissionDeniedIssue,
		configLoadFailedIssue.Id(): configLoadFailedIssue,
	}
)

// Values returns every issue in the catalog, ordered by Id.
func Values() []*Issue {
	values := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		values = append(values, i)
	}
	slices.SortFunc(values, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return values
}

func Get(id Id) *Issue {
	return issues[id]
}
