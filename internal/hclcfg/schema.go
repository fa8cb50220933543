package hclcfg

import "github.com/hashicorp/hcl/v2"

// manifestFile is the gohcl schema for a manifest .hcl file.
type manifestFile struct {
	Manifests []*manifestBlock `hcl:"manifest,block"`
	Remain    hcl.Body         `hcl:",remain"`
}

// manifestBlock mirrors one externally resolved download record.
type manifestBlock struct {
	Name         string    `hcl:"name,optional"`
	URL          string    `hcl:"url"`
	SHA256       string    `hcl:"sha256"`
	Filesize     int64     `hcl:"filesize"`
	ArtifactName string    `hcl:"artifact_name,optional"`
	GPG          *gpgBlock `hcl:"gpg_signature,block"`
}

// gpgBlock mirrors the optional signature metadata of a manifest entry.
type gpgBlock struct {
	SigURL  string `hcl:"sig_url"`
	KeyPath string `hcl:"key_path"`
}
