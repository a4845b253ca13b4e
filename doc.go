// closecap is a close-caption subsystem for games, designed to be used
// mainly with the Ebitengine game engine.
//
// Captions are stored in compiled databases (see the capdir subpackage),
// one per language, which are streamed in blocks through an async cache
// instead of being loaded whole. Most applications only need a [Session]:
//   cfg, err := config.Load("captions.toml")
//   if err != nil { ... }
//   session, err := closecap.New(cfg, closecap.Options{})
//   if err != nil { ... }
//
// Then, gameplay code emits captions:
//   session.CaptionByHash(capdir.Hash("Npc.Greeting"), 20, false)
//
// And the game loop updates and paints the session every frame:
//   session.Update(time.Second/60)
//   surface.SetTarget(screen) // see the ebipaint subpackage
//   session.Paint(surface)
//
// Caption texts can contain markup commands like <clr:255,0,0>, <i>,
// <cr> or <delay:1.5>. See the markup subpackage for the full list.
package closecap
