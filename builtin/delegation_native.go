// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package builtin

import (
	"math/big"

	"github.com/vechain/delegation/builtin/delegation"
	"github.com/vechain/delegation/builtin/gascharger"
	"github.com/vechain/delegation/thor"
	"github.com/vechain/delegation/xenv"
)

// metered runs fn against the contract with every storage access charged to env.
func metered(env *xenv.Environment, fn func(d *delegation.Delegation) ([]any, error)) ([]any, error) {
	charger := gascharger.New(env)
	defer func() {
		charger.Report()
		logger.Trace("native call gas", "breakdown", charger.Breakdown())
	}()
	return fn(Delegation.Native(env.State(), charger))
}

func init() {
	defines := []struct {
		name    string
		payable bool
		run     func(env *xenv.Environment) ([]any, error)
	}{
		{"init", false, func(env *xenv.Environment) ([]any, error) {
			var args struct {
				TotalStake *big.Int
			}
			env.ParseArgs(&args)
			if args.TotalStake == nil {
				args.TotalStake = new(big.Int)
			}
			return metered(env, func(d *delegation.Delegation) ([]any, error) {
				return nil, d.Init(env.Caller(), args.TotalStake)
			})
		}},
		{"getNrUsers", false, func(env *xenv.Environment) ([]any, error) {
			return metered(env, func(d *delegation.Delegation) ([]any, error) {
				n, err := d.NrUsers()
				return []any{n}, err
			})
		}},
		{"getStake", false, func(env *xenv.Environment) ([]any, error) {
			var args struct {
				User thor.Address
			}
			env.ParseArgs(&args)
			return metered(env, func(d *delegation.Delegation) ([]any, error) {
				stake, err := d.StakeOf(args.User)
				return []any{stake}, err
			})
		}},
		{"getHistoricalRewards", false, func(env *xenv.Environment) ([]any, error) {
			return metered(env, func(d *delegation.Delegation) ([]any, error) {
				hist, err := d.HistoricalRewards()
				return []any{hist}, err
			})
		}},
		{"getClaimableReward", false, func(env *xenv.Environment) ([]any, error) {
			var args struct {
				User thor.Address
			}
			env.ParseArgs(&args)
			return metered(env, func(d *delegation.Delegation) ([]any, error) {
				reward, err := d.ClaimableReward(args.User)
				return []any{reward}, err
			})
		}},
		{"getStakeForSale", false, func(env *xenv.Environment) ([]any, error) {
			var args struct {
				User thor.Address
			}
			env.ParseArgs(&args)
			return metered(env, func(d *delegation.Delegation) ([]any, error) {
				amount, err := d.StakeForSale(args.User)
				return []any{amount}, err
			})
		}},
		{"getTotalStake", false, func(env *xenv.Environment) ([]any, error) {
			return metered(env, func(d *delegation.Delegation) ([]any, error) {
				total, err := d.TotalStake()
				return []any{total}, err
			})
		}},
		{"getUnfilledStake", false, func(env *xenv.Environment) ([]any, error) {
			return metered(env, func(d *delegation.Delegation) ([]any, error) {
				unfilled, err := d.UnfilledStake()
				return []any{unfilled}, err
			})
		}},
		{"getServiceFee", false, func(env *xenv.Environment) ([]any, error) {
			return metered(env, func(d *delegation.Delegation) ([]any, error) {
				fee, err := d.ServiceFee()
				return []any{fee}, err
			})
		}},
		{"getOwnerRewards", false, func(env *xenv.Environment) ([]any, error) {
			return metered(env, func(d *delegation.Delegation) ([]any, error) {
				rewards, err := d.OwnerRewards()
				return []any{rewards}, err
			})
		}},
		{"getOwner", false, func(env *xenv.Environment) ([]any, error) {
			return metered(env, func(d *delegation.Delegation) ([]any, error) {
				owner, err := d.Owner()
				return []any{owner}, err
			})
		}},
		{"getGlobalOperationCheckpoint", false, func(env *xenv.Environment) ([]any, error) {
			return metered(env, func(d *delegation.Delegation) ([]any, error) {
				c, err := d.GlobalOperationCheckpoint()
				return []any{c}, err
			})
		}},
		{"getLastSweepUnclaimed", false, func(env *xenv.Environment) ([]any, error) {
			return metered(env, func(d *delegation.Delegation) ([]any, error) {
				sum, err := d.LastSweepUnclaimed()
				return []any{sum}, err
			})
		}},
		{"stake", true, func(env *xenv.Environment) ([]any, error) {
			payment := env.Value()
			out, err := metered(env, func(d *delegation.Delegation) ([]any, error) {
				return nil, d.Stake(env.Caller(), payment)
			})
			if err == nil && payment.Sign() > 0 {
				env.Log("Staked", env.Caller(), payment)
			}
			return out, err
		}},
		{"claimReward", false, func(env *xenv.Environment) ([]any, error) {
			return metered(env, func(d *delegation.Delegation) ([]any, error) {
				amount, err := d.ClaimReward(env.Caller(), env)
				if err != nil {
					return nil, err
				}
				env.Log("RewardClaimed", env.Caller(), amount)
				return []any{amount}, nil
			})
		}},
		{"offerStakeForSale", false, func(env *xenv.Environment) ([]any, error) {
			var args struct {
				Amount *big.Int
			}
			env.ParseArgs(&args)
			if args.Amount == nil {
				args.Amount = new(big.Int)
			}
			return metered(env, func(d *delegation.Delegation) ([]any, error) {
				if err := d.OfferStakeForSale(env.Caller(), args.Amount); err != nil {
					return nil, err
				}
				env.Log("StakeOffered", env.Caller(), args.Amount)
				return nil, nil
			})
		}},
		{"purchaseStake", true, func(env *xenv.Environment) ([]any, error) {
			var args struct {
				Seller thor.Address
			}
			env.ParseArgs(&args)
			payment := env.Value()
			return metered(env, func(d *delegation.Delegation) ([]any, error) {
				if err := d.PurchaseStake(env.Caller(), args.Seller, payment, env); err != nil {
					return nil, err
				}
				env.Log("StakePurchased", env.Caller(), args.Seller, payment)
				return nil, nil
			})
		}},
		{"claimServiceFee", false, func(env *xenv.Environment) ([]any, error) {
			return metered(env, func(d *delegation.Delegation) ([]any, error) {
				amount, err := d.ClaimServiceFee(env.Caller(), env)
				return []any{amount}, err
			})
		}},
		{"modifyTotalDelegationCap", false, func(env *xenv.Environment) ([]any, error) {
			var args struct {
				NewCap *big.Int
			}
			env.ParseArgs(&args)
			if args.NewCap == nil {
				args.NewCap = new(big.Int)
			}
			return metered(env, func(d *delegation.Delegation) ([]any, error) {
				status, err := d.ModifyTotalDelegationCap(env.Caller(), args.NewCap)
				return []any{status}, err
			})
		}},
		{"setServiceFee", false, func(env *xenv.Environment) ([]any, error) {
			var args struct {
				Fee uint64
			}
			env.ParseArgs(&args)
			return metered(env, func(d *delegation.Delegation) ([]any, error) {
				status, err := d.SetServiceFee(env.Caller(), args.Fee)
				return []any{status}, err
			})
		}},
		{"continueGlobalOperation", false, func(env *xenv.Environment) ([]any, error) {
			return metered(env, func(d *delegation.Delegation) ([]any, error) {
				status, err := d.ContinueGlobalOperation(env.Caller())
				return []any{status}, err
			})
		}},
	}

	for _, def := range defines {
		if _, found := nativeMethods[def.name]; found {
			panic("duplicate native method: " + def.name)
		}
		nativeMethods[def.name] = &nativeMethod{
			payable: def.payable,
			run:     def.run,
		}
	}
}
