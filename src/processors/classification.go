package processors

import "github.com/username/kakeibo/src/models"

// AssetBucket is the balance-sheet bucket an asset balance lands in.
type AssetBucket int

const (
	BucketLiquid AssetBucket = iota
	BucketRisk
	BucketPension
)

func (b AssetBucket) String() string {
	switch b {
	case BucketRisk:
		return "risk"
	case BucketPension:
		return "pension"
	default:
		return "liquid"
	}
}

// ClassifyAsset assigns an asset row to exactly one bucket. The rules are
// evaluated in order: a pension asset class wins regardless of the holding
// account, then the account's risk flag, then liquid.
func ClassifyAsset(asset models.AssetRecord, account models.Account) AssetBucket {
	if asset.AssetClass == models.AssetClassPension {
		return BucketPension
	}
	if account.IsRisk {
		return BucketRisk
	}
	return BucketLiquid
}
