package paludis

// blockCheck records a block atom seen during the walk so it can be
// checked against the final selection once resolution settles, since a
// block's target might not be selected (or rejected) until later in
// the walk than the block itself was encountered.
type blockCheck struct {
	block    *BlockNode
	depender PackageID
	path     ConditionPath
}

// blockSet accumulates every block encountered during a resolve pass.
type blockSet struct {
	checks []blockCheck
}

func newBlockSet() *blockSet { return &blockSet{} }

func (b *blockSet) record(bn *BlockNode, depender PackageID, path ConditionPath) {
	b.checks = append(b.checks, blockCheck{block: bn, depender: depender, path: path})
}

// resolve evaluates every recorded block against the finished
// selection and the environment's installed set. A strong block ("!!")
// matching anything — selected or already installed — is fatal,
// because it can never be worked around by reordering or an unmerge
// within this plan. A weak block ("!") matching a newly selected entry
// is also fatal (this resolver does not model unmerge/reinstall
// ordering of two packages it is simultaneously trying to install into
// the same plan); a weak block matching only an already-installed
// package is recorded as a diagnostic, since resolving it (unmerging
// first) is outside this module's scope (no action execution).
func (b *blockSet) resolve(selected map[qpnSlotKey]PackageID, installed []PackageID) ([]*BlockedByInstalled, error) {
	var diagnostics []*BlockedByInstalled
	for _, c := range b.checks {
		for _, id := range selected {
			if c.block.Atom.Matches(id, c.depender) {
				return nil, &BlockedByInstalled{
					Blocker: c.block.Atom,
					Strong:  c.block.Strong,
					Blocked: id,
					path:    c.path.String(),
				}
			}
		}
		for _, id := range installed {
			if !c.block.Atom.Matches(id, c.depender) {
				continue
			}
			if c.block.Strong {
				return nil, &BlockedByInstalled{
					Blocker: c.block.Atom,
					Strong:  true,
					Blocked: id,
					path:    c.path.String(),
				}
			}
			diagnostics = append(diagnostics, &BlockedByInstalled{
				Blocker: c.block.Atom,
				Strong:  false,
				Blocked: id,
				path:    c.path.String(),
			})
		}
	}
	return diagnostics, nil
}
