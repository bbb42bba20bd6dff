package archive

// Entry names of the Open Packaging Conventions prologue.
const (
	ContentTypesEntry = "[Content_Types].xml"
	RootRelsEntry     = "_rels/.rels"
	PackageRelsEntry  = "_rels/package.json.rels"
)

// ContentTypesXML maps the extensions a package may carry to their MIME types.
const ContentTypesXML = `<?xml version="1.0" encoding="UTF-8"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml" />
  <Default Extension="xml.fdm_material" ContentType="application/x-ultimaker-material-profile" />
  <Default Extension="xml.fdm_material.sig" ContentType="application/x-ultimaker-material-sig" />
  <Default Extension="inst.cfg" ContentType="application/x-ultimaker-quality-profile" />
  <Default Extension="def.json" ContentType="application/x-ultimaker-machine-definition" />
  <Default Extension="json" ContentType="application/json" />
</Types>
`

// RootRelsXML points the package root at package.json.
const RootRelsXML = `<?xml version="1.0" encoding="UTF-8"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Target="/package.json" Id="rel0" Type="http://schemas.ultimaker.org/package/2018/relationships/curapackage" />
</Relationships>
`

// PackageRelsXML points package.json at the plugin payload directory.
const PackageRelsXML = `<?xml version="1.0" encoding="UTF-8"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Target="/files/plugins" Id="rel1" Type="http://schemas.ultimaker.org/package/2018/relationships/plugin" />
</Relationships>
`

type fixedEntry struct {
	name    string
	content string
}

// prologue lists the OPC entries in the order they open the archive.
var prologue = []fixedEntry{
	{name: ContentTypesEntry, content: ContentTypesXML},
	{name: RootRelsEntry, content: RootRelsXML},
	{name: PackageRelsEntry, content: PackageRelsXML},
}

// PrologueEntries returns the OPC entry names in archive order.
func PrologueEntries() []string {
	names := make([]string, len(prologue))
	for i, e := range prologue {
		names[i] = e.name
	}
	return names
}
